package service

import (
	"context"
	"errors"

	"reservapos/internal/dto"
	"reservapos/internal/model"
	"reservapos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductoService is the read surface for the catalog plumbing. Stock fields
// pass through untouched — mutation belongs to the ledger.
type ProductoService interface {
	Crear(ctx context.Context, p *model.Producto) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
}

type productoService struct {
	repo repository.ProductoRepository
}

func NewProductoService(repo repository.ProductoRepository) ProductoService {
	return &productoService{repo: repo}
}

func (s *productoService) Crear(ctx context.Context, p *model.Producto) (*dto.ProductoResponse, error) {
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return productoToResponse(p), nil
}

func (s *productoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductoNoEncontrado
		}
		return nil, err
	}
	return productoToResponse(p), nil
}

func (s *productoService) Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	productos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		items = append(items, *productoToResponse(&productos[i]))
	}
	return &dto.ProductoListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func productoToResponse(p *model.Producto) *dto.ProductoResponse {
	var catID *string
	if p.CategoriaID != nil {
		v := p.CategoriaID.String()
		catID = &v
	}
	return &dto.ProductoResponse{
		ID:              p.ID.String(),
		CodigoBarras:    p.CodigoBarras,
		Nombre:          p.Nombre,
		Descripcion:     p.Descripcion,
		CategoriaID:     catID,
		PrecioVenta:     p.PrecioVenta,
		Stock:           p.Stock,
		StockReservado:  p.StockReservado,
		StockDisponible: p.StockDisponible(),
		StockMinimo:     p.StockMinimo,
		Activo:          p.Activo,
	}
}
