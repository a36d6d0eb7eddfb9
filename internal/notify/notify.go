package notify

import "context"

// Category mesajın hangi kanala gideceğini belirler; teslim kanalını sink seçer.
type Category string

const (
	CategoryLowStock    Category = "low_stock"
	CategoryReadyStock  Category = "ready_stock"
	CategoryClientOrder Category = "client_order"
	CategoryInfo        Category = "info"
)

type Message struct {
	Category Category
	Text     string
}

type Sink interface {
	Send(ctx context.Context, msg Message) error
}

// Nop hiçbir yere göndermez.
type Nop struct{}

func (Nop) Send(context.Context, Message) error { return nil }
