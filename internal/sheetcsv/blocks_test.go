package sheetcsv

import (
	"testing"

	"finboard/internal/core"
)

func TestClassifyRow(t *testing.T) {
	cases := []struct {
		row  []string
		want RowKind
	}{
		{[]string{"01/15/2024", "Bill", "$100.00"}, RowTransaction},
		{[]string{"1-5-24", "Bill"}, RowTransaction},
		{[]string{"Total Acme Brick", "$100.00"}, RowBlockTotal},
		{[]string{"TOTAL"}, RowBlockTotal},
		{[]string{"Acme Brick"}, RowBlockHeader},
		{[]string{`=HYPERLINK("https://example.com","Acme Brick")`}, RowBlockHeader},
		{[]string{""}, RowSkip},
		{[]string{}, RowSkip},
		{[]string{"$1,234.56"}, RowSkip},
		{[]string{"123.45"}, RowSkip},
	}
	for _, tc := range cases {
		if got := ClassifyRow(tc.row); got != tc.want {
			t.Errorf("ClassifyRow(%v) = %d, want %d", tc.row, got, tc.want)
		}
	}
}

func TestCleanBlockName(t *testing.T) {
	cases := map[string]string{
		`HYPERLINK("https://qbo.intuit.com/v/123","Acme Brick")`:   "Acme Brick",
		`=HYPERLINK("https://x.test","ACTION GYPSUM SUPPLY")`:      "ACTION GYPSUM SUPPLY",
		`=hyperlink ( "https://x.test" , "Lowercase Formula Co" )`: "Lowercase Formula Co",
		"Plain Vendor Name": "Plain Vendor Name",
		"  Padded Name  ":   "Padded Name",
	}
	for in, want := range cases {
		if got := CleanBlockName(in); got != want {
			t.Errorf("CleanBlockName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSegment_TwoBlocks(t *testing.T) {
	header := []string{"Vendor", "Date", "Transaction Type", "Amount", "Open Balance"}
	rows := Tokenize(`Vendor A,,,,
01/05/2024,,Bill,$100.00,$100.00
01/12/2024,,Bill,$250.00,$200.00
Total Vendor A,,,$350.00,$300.00
Vendor B,,,,
02/01/2024,,Bill,$75.00,$75.00
Total Vendor B,,,$75.00,$75.00
`)
	blocks := Segment(rows, header)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Name != "Vendor A" || len(blocks[0].Rows) != 2 {
		t.Errorf("block 0 wrong: %+v", blocks[0])
	}
	if blocks[1].Name != "Vendor B" || len(blocks[1].Rows) != 1 {
		t.Errorf("block 1 wrong: %+v", blocks[1])
	}
	if blocks[0].Total == nil || blocks[1].Total == nil {
		t.Fatal("expected both blocks to carry a total row")
	}
	if got := blocks[0].Total.MoneyOr("amount", core.ZeroMoney()); got.Float64() != 350 {
		t.Errorf("block 0 total amount: expected 350, got %s", got)
	}
}

func TestSegment_ImplicitCloseAndOrphans(t *testing.T) {
	header := []string{"Vendor", "Date", "Amount"}
	rows := Tokenize(`01/01/2024,,$5.00
Vendor A,,
01/02/2024,,$10.00
Vendor B,,
01/03/2024,,$20.00
`)
	blocks := Segment(rows, header)
	// The leading orphan transaction is dropped; Vendor A closes implicitly
	// when Vendor B opens; end of input closes Vendor B.
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d: %+v", len(blocks), blocks)
	}
	if blocks[0].Total != nil {
		t.Error("implicitly closed block must have no total row")
	}
	if len(blocks[0].Rows) != 1 || len(blocks[1].Rows) != 1 {
		t.Errorf("unexpected row counts: %d, %d", len(blocks[0].Rows), len(blocks[1].Rows))
	}
}

func TestSegment_HyperlinkVendorName(t *testing.T) {
	header := []string{"Vendor", "Date", "Amount"}
	rows := Tokenize(`"=HYPERLINK(""https://qbo.test/v/9"",""Acme Brick"")",,
03/01/2024,,$12.00
Total Acme Brick,,$12.00
`)
	blocks := Segment(rows, header)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Name != "Acme Brick" {
		t.Errorf("hyperlink display text not extracted: %q", blocks[0].Name)
	}
}

func TestSummaryEntities(t *testing.T) {
	header := []string{"Vendor", "Current", "1 months", "Total"}
	rows := Tokenize(`Acme Brick,$74555.34,$0.00,$74555.34
ACTION GYPSUM,$4894.13,$0.00,$4894.13
Total,$79449.47,$0.00,$79449.47
`)
	entities := SummaryEntities(rows, header, "vendor", core.AggregateConfig{})
	if len(entities) != 2 {
		t.Fatalf("expected 2 entities (total row excluded), got %d", len(entities))
	}
	if entities[0].Name != "Acme Brick" {
		t.Errorf("expected Acme Brick first, got %q", entities[0].Name)
	}
	if entities[0].Buckets.Current.Float64() != 74555.34 {
		t.Errorf("Acme Brick current: expected 74555.34, got %s", entities[0].Buckets.Current)
	}

	summary := core.Aggregate(core.DatasetAPSummary, entities, core.AggregateConfig{})
	if summary.Total.Float64() != 79449.47 {
		t.Errorf("portfolio total: expected 79449.47, got %s", summary.Total)
	}
}
