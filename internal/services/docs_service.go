package services

import (
	"bytes"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	intconfig "ferryops/internal/config"
	"ferryops/internal/domain"
	"ferryops/internal/repositories"
	"ferryops/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// DocsService renders printable PDF receipts for tickets and bookings.
// The receipt carries the signed verification payload so the printed
// code can be scanned at boarding.
type DocsService struct {
	TicketRepo  repositories.TicketRepo
	BookingRepo repositories.BookingRepo
	RefRepo     repositories.ReferenceRepo
	VerifySvc   VerificationService
	DB          *sql.DB
	RequestID   string
}

type receiptData struct {
	Title       string
	ReferenceNo string
	BranchName  string
	RouteName   string
	TravelDate  string
	Departure   string
	Status      string
	Amount      float64
	Discount    float64
	NetAmount   float64
	Payload     string
	Lines       []receiptLine
}

type receiptLine struct {
	ItemName  string
	VehicleNo string
	Quantity  int
	Amount    float64
}

func (s DocsService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s DocsService) tickets() repositories.TicketRepo {
	if s.TicketRepo.DB != nil {
		return s.TicketRepo
	}
	return repositories.TicketRepo{DB: s.db()}
}

func (s DocsService) bookings() repositories.BookingRepo {
	if s.BookingRepo.DB != nil {
		return s.BookingRepo
	}
	return repositories.BookingRepo{DB: s.db()}
}

func (s DocsService) refs() repositories.ReferenceRepo {
	if s.RefRepo.DB != nil {
		return s.RefRepo
	}
	return repositories.ReferenceRepo{DB: s.db()}
}

// GenerateTicketReceipt builds the PDF for a counter ticket.
func (s DocsService) GenerateTicketReceipt(ticketID int64) ([]byte, string, error) {
	t, err := s.tickets().GetByID(ticketID)
	if err != nil {
		return nil, "", err
	}
	items, err := s.tickets().ItemsByTicketID(ticketID)
	if err != nil {
		return nil, "", err
	}

	data := receiptData{
		Title:       "FERRY TICKET",
		ReferenceNo: strconv.FormatInt(t.TicketNo, 10),
		BranchName:  s.refs().BranchName(t.BranchID),
		RouteName:   s.refs().RouteDisplayName(t.RouteID),
		TravelDate:  utils.FormatDate(t.TicketDate),
		Departure:   t.Departure,
		Status:      t.Status,
		Amount:      t.Amount,
		Discount:    t.Discount,
		NetAmount:   t.NetAmount,
		Payload:     s.VerifySvc.Payload(t.VerificationCode),
	}
	for _, it := range items {
		data.Lines = append(data.Lines, receiptLine{
			ItemName:  s.refs().ItemName(it.ItemID),
			VehicleNo: it.VehicleNo,
			Quantity:  it.Quantity,
			Amount:    domain.LineAmount(it.Quantity, it.Rate, it.Levy),
		})
	}

	utils.LogEvent(s.RequestID, "docs", "ticket_receipt", fmt.Sprintf("ticket_id=%d", ticketID))
	return buildReceiptPDF(data)
}

// GenerateBookingReceipt builds the PDF for a portal booking. The
// caller is responsible for ownership checks before invoking this.
func (s DocsService) GenerateBookingReceipt(bookingID int64) ([]byte, string, error) {
	b, err := s.bookings().GetByID(bookingID)
	if err != nil {
		return nil, "", err
	}
	items, err := s.bookings().ItemsByBookingID(bookingID)
	if err != nil {
		return nil, "", err
	}

	data := receiptData{
		Title:       "FERRY BOOKING",
		ReferenceNo: strconv.FormatInt(b.BookingNo, 10),
		BranchName:  s.refs().BranchName(b.BranchID),
		RouteName:   s.refs().RouteDisplayName(b.RouteID),
		TravelDate:  utils.FormatDate(b.TravelDate),
		Departure:   b.Departure,
		Status:      b.Status,
		Amount:      b.Amount,
		Discount:    b.Discount,
		NetAmount:   b.NetAmount,
		Payload:     s.VerifySvc.Payload(b.VerificationCode),
	}
	for _, it := range items {
		data.Lines = append(data.Lines, receiptLine{
			ItemName:  s.refs().ItemName(it.ItemID),
			VehicleNo: it.VehicleNo,
			Quantity:  it.Quantity,
			Amount:    domain.LineAmount(it.Quantity, it.Rate, it.Levy),
		})
	}

	utils.LogEvent(s.RequestID, "docs", "booking_receipt", fmt.Sprintf("booking_id=%d", bookingID))
	return buildReceiptPDF(data)
}

func buildReceiptPDF(d receiptData) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(d.Title, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, d.Title)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	header := []string{
		fmt.Sprintf("Reference No : %s", safe(d.ReferenceNo, "-")),
		fmt.Sprintf("Branch       : %s", safe(d.BranchName, "-")),
		fmt.Sprintf("Route        : %s", safe(d.RouteName, "-")),
		fmt.Sprintf("Travel Date  : %s", safe(d.TravelDate, "-")),
		fmt.Sprintf("Departure    : %s", safe(d.Departure, "-")),
		fmt.Sprintf("Status       : %s", safe(d.Status, "-")),
	}
	for _, line := range header {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Items:")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	for i, line := range d.Lines {
		desc := fmt.Sprintf("%d) %s x%d", i+1, safe(line.ItemName, "-"), line.Quantity)
		if strings.TrimSpace(line.VehicleNo) != "" {
			desc += fmt.Sprintf(" (%s)", line.VehicleNo)
		}
		desc += "  " + utils.FormatMoney(line.Amount)
		pdf.Cell(0, 6, desc)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, "Amount   : "+utils.FormatMoney(d.Amount))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Discount : "+utils.FormatMoney(d.Discount))
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Net      : "+utils.FormatMoney(d.NetAmount))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 7, "Verification Code:")
	pdf.Ln(7)
	pdf.SetFont("Courier", "", 11)
	pdf.MultiCell(0, 6, d.Payload, "", "", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Present this receipt at boarding. The verification code is valid for a single check-in.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("%s.pdf", safeFilenamePart(d.Title+"_"+d.ReferenceNo))
	return buf.Bytes(), filename, nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
