package orders

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ExportHeaders are the column titles of the order export, in order.
var ExportHeaders = []string{
	"No. Order",
	"Tanggal",
	"Nama Pelanggan",
	"Email",
	"Alamat Pengiriman",
	"Produk",
	"SKU",
	"Qty",
	"Harga Satuan",
	"Subtotal Item",
	"Subtotal Order",
	"Ongkir",
	"Total",
	"Status Order",
	"Status Pembayaran",
	"Kurir",
	"No. Resi",
	"Catatan Pelanggan",
	"Catatan Admin",
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// exportLocation is the store's local time zone; falls back to a fixed UTC+7.
var exportLocation = func() *time.Location {
	if loc, err := time.LoadLocation("Asia/Jakarta"); err == nil {
		return loc
	}
	return time.FixedZone("WIB", 7*60*60)
}()

// ExportFile is a rendered CSV download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
	Rows        int
}

func (s *service) Export(ctx context.Context, filters AdminOrderFilters) (*ExportFile, error) {
	rows, err := s.repo.ExportRows(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load export rows")
	}
	body, err := RenderCSV(rows)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render export")
	}
	return &ExportFile{
		Filename:    ExportFilename(s.now()),
		ContentType: "text/csv; charset=utf-8",
		Body:        body,
		Rows:        len(rows),
	}, nil
}

// ExportFilename names the download after the UTC date it was produced.
func ExportFilename(now time.Time) string {
	return "orders-export-" + now.UTC().Format("2006-01-02") + ".csv"
}

// RenderCSV writes the rows with Indonesian number and date formatting.
// Fields containing a comma, quote or newline are quoted.
func RenderCSV(rows []ExportRow) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(ExportHeaders); err != nil {
		return nil, err
	}
	printer := message.NewPrinter(language.Indonesian)
	for _, row := range rows {
		qty := ""
		if row.ProductSKU != "" || row.Quantity > 0 {
			qty = strconv.Itoa(row.Quantity)
		}
		record := []string{
			row.OrderNumber,
			FormatDate(row.CreatedAt),
			row.CustomerName,
			row.CustomerEmail,
			row.ShippingAddress.Line(),
			row.ProductName,
			row.ProductSKU,
			qty,
			formatAmount(printer, row.UnitPrice),
			formatAmount(printer, row.ItemSubtotal),
			formatAmount(printer, row.Subtotal),
			formatAmount(printer, row.ShippingCost),
			formatAmount(printer, row.Total),
			row.OrderStatus,
			row.PaymentStatus,
			row.Carrier,
			row.TrackingNumber,
			row.CustomerNotes,
			row.AdminNotes,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormatAmount renders an amount with Indonesian digit grouping, e.g. 265.000.
func FormatAmount(amount int) string {
	return formatAmount(message.NewPrinter(language.Indonesian), amount)
}

func formatAmount(p *message.Printer, amount int) string {
	return p.Sprintf("%d", amount)
}

// FormatDate renders dd/mm/yyyy hh.mm in the store's time zone.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(exportLocation).Format("02/01/2006 15.04")
}
