// Package spreadsheet reads product catalogs from and writes order reports
// to xlsx workbooks.
package spreadsheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/velora-shop/storefront-backend/internal/app/model"
	"github.com/xuri/excelize/v2"
)

// ProductColumns is the header row the catalog import expects.
var ProductColumns = []string{
	"name", "description", "newprice", "comparePrice", "category",
	"quantity", "unit", "sizes", "status", "newArrival", "isFeatured", "image",
}

// RowError describes a skipped row; Row is 1-based as shown in a spreadsheet app.
type RowError struct {
	Row    int
	Reason string
}

// ReadProducts parses the first sheet. Invalid rows are skipped and reported.
func ReadProducts(r io.Reader) ([]model.Product, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, nil, fmt.Errorf("no sheets found in workbook")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("no data found in workbook")
	}

	index := headerIndex(rows[0])
	for _, col := range []string{"name", "newprice", "category"} {
		if _, ok := index[strings.ToLower(col)]; !ok {
			return nil, nil, fmt.Errorf("missing required column %q", col)
		}
	}

	var products []model.Product
	var skipped []RowError
	for i, row := range rows[1:] {
		rowNum := i + 2
		cell := func(col string) string {
			j, ok := index[strings.ToLower(col)]
			if !ok || j >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[j])
		}

		if isBlank(row) {
			continue
		}

		product, reason := parseProductRow(cell)
		if reason != "" {
			skipped = append(skipped, RowError{Row: rowNum, Reason: reason})
			continue
		}
		products = append(products, product)
	}

	return products, skipped, nil
}

func parseProductRow(cell func(string) string) (model.Product, string) {
	name := cell("name")
	if name == "" {
		return model.Product{}, "name is empty"
	}
	category := cell("category")
	if category == "" {
		return model.Product{}, "category is empty"
	}

	price, err := strconv.ParseFloat(cell("newprice"), 64)
	if err != nil || price <= 0 {
		return model.Product{}, "newprice must be a positive number"
	}

	var comparePrice float64
	if raw := cell("comparePrice"); raw != "" {
		if comparePrice, err = strconv.ParseFloat(raw, 64); err != nil {
			return model.Product{}, "comparePrice is not a number"
		}
	}

	quantity := 0
	if raw := cell("quantity"); raw != "" {
		if quantity, err = strconv.Atoi(raw); err != nil || quantity < 0 {
			return model.Product{}, "quantity must be a non-negative integer"
		}
	}

	var sizes []string
	for _, s := range strings.Split(cell("sizes"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			sizes = append(sizes, s)
		}
	}

	return model.Product{
		Name:         name,
		Description:  cell("description"),
		NewPrice:     price,
		ComparePrice: comparePrice,
		Category:     category,
		Quantity:     quantity,
		Unit:         cell("unit"),
		Sizes:        sizes,
		Status:       model.ProductStatus(strings.ToLower(cell("status"))),
		NewArrival:   parseFlag(cell("newArrival")),
		IsFeatured:   parseFlag(cell("isFeatured")),
		Image:        cell("image"),
	}, ""
}

var orderColumns = []string{
	"Order", "Date", "Customer", "Email", "Phone", "Payment", "Status", "Items", "Total",
}

// WriteOrders writes one row per order to w as an xlsx workbook.
func WriteOrders(w io.Writer, orders []model.Order) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Orders"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}

	header := make([]interface{}, len(orderColumns))
	for i, c := range orderColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, o := range orders {
		items := 0
		for _, it := range o.Items {
			items += it.Quantity
		}
		row := []interface{}{
			o.OrderNumber,
			o.CreatedAt.Format("2006-01-02 15:04"),
			o.Customer.FullName(),
			o.Customer.Email,
			o.Customer.Phone,
			string(o.PaymentMethod),
			string(o.Status),
			items,
			o.TotalAmount,
		}
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return index
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseFlag(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}
