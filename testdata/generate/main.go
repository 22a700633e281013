// Generates sample offer and invoice documents for manual testing: one
// offer with a tabular layout, plus partial-delivery invoices that cover
// it with a few deliberate discrepancies. Run from the repository root:
//
//	go run ./testdata/generate
package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
)

type catalogItem struct {
	code  string
	name  string
	qty   int
	price string
}

func main() {
	rng := rand.New(rand.NewSource(42))
	baseDir := findTestdataDir()

	catalog := []catalogItem{
		{"A123", "Steel Bolt M8", 120, "0.45"},
		{"A124", "Steel Nut M8", 120, "0.20"},
		{"B210", "Hinge Assembly", 40, "12.80"},
		{"C301", "Bearing Unit", 24, "38.50"},
		{"C302", "Seal Ring", 48, "4.10"},
		{"D400", "Drive Belt", 12, "27.90"},
		{"E515", "Control Relay", 18, "15.60"},
		{"F620", "Cable Gland Pack", 30, "6.75"},
	}

	offersDir := filepath.Join(baseDir, "offers")
	invoicesDir := filepath.Join(baseDir, "invoices")
	for _, dir := range []string{offersDir, invoicesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	writeOffer(filepath.Join(offersDir, "offer_2024-117.txt"), catalog)

	// Two partial deliveries covering the catalog, with seeded defects:
	// one short delivery, one price drift, one item never delivered and
	// one item that was not offered.
	shortIdx := rng.Intn(len(catalog))
	splits := splitQuantities(rng, catalog)
	writeInvoice(filepath.Join(invoicesDir, "delivery_2024-117-1.txt"),
		catalog, splits[0], shortIdx)
	writeInvoice(filepath.Join(invoicesDir, "delivery_2024-117-2.txt"),
		catalog, splits[1], shortIdx)

	log.Printf("Wrote sample documents under %s", baseDir)
}

func writeOffer(path string, catalog []catalogItem) {
	var b strings.Builder
	b.WriteString("PROCUREMENT OFFER 2024-117\n\n")
	b.WriteString("Item Code\tDescription\tQty\tUnit Price\tTotal\n")
	for _, it := range catalog {
		price := decimal.RequireFromString(it.price)
		total := price.Mul(decimal.NewFromInt(int64(it.qty)))
		fmt.Fprintf(&b, "%s\t%s\t%d\t%s\t%s\n", it.code, it.name, it.qty, price, total)
	}
	mustWrite(path, b.String())
}

// splitQuantities divides each catalog quantity across two deliveries.
func splitQuantities(rng *rand.Rand, catalog []catalogItem) [2][]int {
	var first, second []int
	for _, it := range catalog {
		f := rng.Intn(it.qty + 1)
		first = append(first, f)
		second = append(second, it.qty-f)
	}
	return [2][]int{first, second}
}

func writeInvoice(path string, catalog []catalogItem, quantities []int, shortIdx int) {
	var b strings.Builder
	fmt.Fprintf(&b, "DELIVERY NOTE %s\n\n", strings.TrimSuffix(filepath.Base(path), ".txt"))
	b.WriteString("Article\tProduct\tAmount\tUnit Price\n")

	for i, it := range catalog {
		qty := quantities[i]
		if i == shortIdx && qty > 0 {
			qty-- // short delivery, never made up by the second shipment
		}
		if qty == 0 {
			continue
		}
		price := decimal.RequireFromString(it.price)
		if it.code == "C301" {
			// Price drift beyond the default 2% tolerance.
			price = price.Mul(decimal.RequireFromString("1.05")).Round(2)
		}
		if it.code == "D400" {
			continue // offered but never delivered
		}
		fmt.Fprintf(&b, "%s\t%s\t%d\t%s\n", it.code, it.name, qty, price)
	}

	// Delivered but not offered.
	b.WriteString("Z999\tPacking Crate\t2\t8.00\n")

	mustWrite(path, b.String())
}

func mustWrite(path, content string) {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		log.Fatalf("write %s: %v", path, err)
	}
}

func findTestdataDir() string {
	candidates := []string{"testdata", filepath.Join("..", "..", "testdata")}
	for _, c := range candidates {
		if st, err := os.Stat(c); err == nil && st.IsDir() {
			return c
		}
	}
	return "testdata"
}
