// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/your-org/storefront-checkout/internal/config"
	"github.com/your-org/storefront-checkout/internal/domain/order"
)

var receiptTmpl = template.Must(template.New("receipt").Parse(receiptTemplate))

// Service handles PDF generation
type Service struct {
	store  config.StoreInfo
	render func(html []byte) ([]byte, error)
}

// NewService creates a new PDF service backed by wkhtmltopdf
func NewService(store config.StoreInfo) *Service {
	return &Service{
		store:  store,
		render: renderWithWkhtmltopdf,
	}
}

// GenerateReceipt renders a purchase receipt as PDF
func (s *Service) GenerateReceipt(record *order.PurchaseRecord) (*bytes.Buffer, error) {
	htmlContent, err := s.generateHTML(newReceiptData(s.store, record))
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdfBytes, err := s.render(htmlContent)
	if err != nil {
		return nil, err
	}
	return bytes.NewBuffer(pdfBytes), nil
}

func renderWithWkhtmltopdf(htmlContent []byte) ([]byte, error) {
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	// Set PDF options
	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA5)
	pdfg.Grayscale.Set(false)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(htmlContent))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)

	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}
	return pdfg.Bytes(), nil
}

// generateHTML generates HTML content from template
func (s *Service) generateHTML(data ReceiptData) ([]byte, error) {
	var buf bytes.Buffer
	if err := receiptTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// ReceiptData represents the data passed to the receipt template
type ReceiptData struct {
	ReceiptNumber string
	PaidAt        string
	UserID        string
	Status        string
	Currency      string
	Total         string
	Items         []ReceiptLine
	Store         config.StoreInfo
}

// ReceiptLine is one formatted purchase line
type ReceiptLine struct {
	Title     string
	Quantity  int
	UnitPrice string
	Total     string
}

func newReceiptData(store config.StoreInfo, record *order.PurchaseRecord) ReceiptData {
	data := ReceiptData{
		ReceiptNumber: record.PurchaseID,
		PaidAt:        record.PaidAt.Format("02/01/2006 15:04"),
		UserID:        record.UserID,
		Status:        record.Status,
		Currency:      record.Currency,
		Total:         record.Total.StringFixed(2),
		Items:         make([]ReceiptLine, 0, len(record.Items)),
		Store:         store,
	}
	for _, item := range record.Items {
		data.Items = append(data.Items, ReceiptLine{
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Total:     item.TotalPrice.StringFixed(2),
		})
	}
	return data
}

// Receipt HTML template
const receiptTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Receipt {{.ReceiptNumber}}</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            margin: 0;
            padding: 20px;
            color: #333;
        }
        .header {
            margin-bottom: 30px;
            border-bottom: 2px solid #eee;
            padding-bottom: 20px;
        }
        .receipt-title {
            font-size: 24px;
            font-weight: bold;
            color: #b91c1c;
        }
        .items-table {
            width: 100%;
            border-collapse: collapse;
            margin-bottom: 30px;
        }
        .items-table th,
        .items-table td {
            border: 1px solid #ddd;
            padding: 10px 8px;
            text-align: left;
        }
        .items-table th {
            background-color: #f8f9fa;
        }
        .num {
            text-align: right !important;
        }
        .total-row {
            font-size: 18px;
            font-weight: bold;
        }
        .footer {
            margin-top: 40px;
            text-align: center;
            color: #666;
            font-size: 12px;
        }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Store.Name}}</h1>
        {{if .Store.Address}}<p>{{.Store.Address}}</p>{{end}}
        {{if .Store.Website}}<p>{{.Store.Website}}</p>{{end}}
        <div class="receipt-title">RECEIPT</div>
        <p><strong>Payment #:</strong> {{.ReceiptNumber}}</p>
        <p><strong>Date:</strong> {{.PaidAt}}</p>
        <p><strong>Status:</strong> {{.Status}}</p>
    </div>

    <table class="items-table">
        <thead>
            <tr>
                <th>Item</th>
                <th class="num">Qty</th>
                <th class="num">Price</th>
                <th class="num">Total</th>
            </tr>
        </thead>
        <tbody>
            {{range .Items}}
            <tr>
                <td>{{.Title}}</td>
                <td class="num">{{.Quantity}}</td>
                <td class="num">{{.UnitPrice}}</td>
                <td class="num">{{.Total}}</td>
            </tr>
            {{end}}
            <tr class="total-row">
                <td colspan="3" class="num">Total {{.Currency}}</td>
                <td class="num">{{.Total}}</td>
            </tr>
        </tbody>
    </table>

    <div class="footer">
        <p>Thank you for your purchase!</p>
        {{if .Store.Email}}<p>Questions? Contact us at {{.Store.Email}}</p>{{end}}
    </div>
</body>
</html>
`
