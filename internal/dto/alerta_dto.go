package dto

// AlertaStockResponse is one active low-stock alert.
type AlertaStockResponse struct {
	ID            string  `json:"id"`
	ProductoID    string  `json:"producto_id"`
	Producto      string  `json:"producto,omitempty"`
	Umbral        int     `json:"umbral"`
	StockActual   int     `json:"stock_actual"`
	Severidad     string  `json:"severidad"`
	ReconocidaPor *string `json:"reconocida_por,omitempty"`
	ReconocidaAt  *string `json:"reconocida_at,omitempty"`
	CreatedAt     string  `json:"created_at"`
}
