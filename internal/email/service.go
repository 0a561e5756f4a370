package email

import (
	"fmt"
	"net/smtp"
)

// SendFunc has the signature of smtp.SendMail
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service handles email sending via SMTP
type Service struct {
	host     string
	port     string
	from     string
	sendMail SendFunc
}

// NewService creates a new email service
func NewService(host, port, from string) *Service {
	return &Service{
		host:     host,
		port:     port,
		from:     from,
		sendMail: smtp.SendMail,
	}
}

// WithSender replaces the SMTP transport
func (s *Service) WithSender(fn SendFunc) *Service {
	s.sendMail = fn
	return s
}

// SendOrderConfirmation tells a buyer their order was placed
func (s *Service) SendOrderConfirmation(to string, o OrderSummary) error {
	subject := fmt.Sprintf("Order confirmation #%s", shortID(o.OrderID))
	return s.send(to, subject, BuildOrderConfirmationBody(o))
}

// SendOfferAccepted tells a buyer the seller accepted their offer
func (s *Service) SendOfferAccepted(to string, n SaleSummary) error {
	subject := fmt.Sprintf("Your offer for %s was accepted", n.ProductName)
	return s.send(to, subject, BuildOfferAcceptedBody(n))
}

// SendSaleNotice tells a seller one of their listings was bought
func (s *Service) SendSaleNotice(to string, n SaleSummary) error {
	subject := fmt.Sprintf("You sold %s", n.ProductName)
	return s.send(to, subject, BuildSaleNoticeBody(n))
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return s.sendMail(addr, nil, s.from, []string{to}, []byte(msg))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
