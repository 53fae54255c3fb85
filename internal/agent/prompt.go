package agent

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/paydesk/internal/memory"
	"github.com/raphaelgruber/paydesk/internal/models"
)

const closingInstruction = "Provide a helpful, professional customer support response."

// BuildPrompt lays out the user turn sent alongside the system prompt:
// prior conversation, the payment record when one was found, then the
// current customer message.
func BuildPrompt(history string, payment *models.Payment, message string) string {
	var b strings.Builder

	if history == "" || history == memory.EmptyHistoryText {
		b.WriteString(memory.EmptyHistoryText)
	} else {
		b.WriteString("Previous conversation:\n")
		b.WriteString(history)
	}
	b.WriteString("\n\n")

	if payment != nil {
		writePayment(&b, payment)
		b.WriteString("\n")
	}

	b.WriteString("Current customer message: ")
	b.WriteString(message)
	b.WriteString("\n\n")
	b.WriteString(closingInstruction)
	return b.String()
}

func writePayment(b *strings.Builder, p *models.Payment) {
	b.WriteString("Payment Information:\n")
	fmt.Fprintf(b, "ID: %s\n", p.Reference)
	fmt.Fprintf(b, "Customer: %s\n", p.CustomerName)
	fmt.Fprintf(b, "Amount: %.2f %s\n", p.Amount, p.Currency)
	fmt.Fprintf(b, "Status: %s\n", p.Status)
	b.WriteString("Items:\n")
	for _, item := range p.Items {
		fmt.Fprintf(b, "- %s (Qty: %d) - %.2f %s\n", item.Name, item.Quantity, item.Price, p.Currency)
	}
}
