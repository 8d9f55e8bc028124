package catalog

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore хранит каталог в памяти: срезы в порядке добавления + индексы по ключу.
type MemoryStore struct {
	mu sync.RWMutex

	nextID     int64
	products   []Product
	productIdx map[int64]int

	types   []ProductType
	typeIdx map[string]int

	materials   []Material
	materialIdx map[string]int

	workshops   []Workshop
	workshopIdx map[string]int

	// связи в порядке добавления; ключ — (product_id, workshop_name)
	links   []ProductWorkshop
	linkIdx map[linkKey]int
}

type linkKey struct {
	productID int64
	workshop  string
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:      1,
		productIdx:  make(map[int64]int),
		typeIdx:     make(map[string]int),
		materialIdx: make(map[string]int),
		workshopIdx: make(map[string]int),
		linkIdx:     make(map[linkKey]int),
	}
}

/* Products */

func (s *MemoryStore) ListProducts(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, copyProduct(p))
	}
	return out, nil
}

func (s *MemoryStore) GetProduct(_ context.Context, id int64) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.productIdx[id]
	if !ok {
		return nil, productNotFound(id)
	}
	p := copyProduct(s.products[i])
	return &p, nil
}

func (s *MemoryStore) CreateProduct(_ context.Context, d Draft) (*Product, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRefs(d); err != nil {
		return nil, err
	}
	p := d.product(s.nextID)
	s.nextID++
	s.productIdx[p.ID] = len(s.products)
	s.products = append(s.products, p)
	out := copyProduct(p)
	return &out, nil
}

func (s *MemoryStore) UpdateProduct(_ context.Context, id int64, d Draft) (*Product, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.productIdx[id]
	if !ok {
		return nil, productNotFound(id)
	}
	if err := s.checkRefs(d); err != nil {
		return nil, err
	}
	s.products[i] = d.product(id)
	out := copyProduct(s.products[i])
	return &out, nil
}

func (s *MemoryStore) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.productIdx[id]
	if !ok {
		return productNotFound(id)
	}
	s.products = append(s.products[:i], s.products[i+1:]...)
	s.productIdx = make(map[int64]int, len(s.products))
	for j, p := range s.products {
		s.productIdx[p.ID] = j
	}

	// связи принадлежат продукту — удаляем вместе с ним
	kept := s.links[:0]
	for _, l := range s.links {
		if l.ProductID != id {
			kept = append(kept, l)
		}
	}
	s.links = kept
	s.reindexLinks()
	return nil
}

func (s *MemoryStore) checkRefs(d Draft) error {
	v := make(Violations)
	if d.ProductTypeName != nil {
		if _, ok := s.typeIdx[*d.ProductTypeName]; !ok {
			v["product_type_name"] = CodeUnknown
		}
	}
	if d.MainMaterialName != nil {
		if _, ok := s.materialIdx[*d.MainMaterialName]; !ok {
			v["main_material_name"] = CodeUnknown
		}
	}
	return v.err()
}

/* Dictionaries */

func (s *MemoryStore) ListProductTypes(_ context.Context) ([]ProductType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ProductType(nil), s.types...), nil
}

func (s *MemoryStore) GetProductType(_ context.Context, name string) (*ProductType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.typeIdx[name]
	if !ok {
		return nil, fmt.Errorf("product type %q: %w", name, ErrNotFound)
	}
	t := s.types[i]
	return &t, nil
}

func (s *MemoryStore) PutProductType(_ context.Context, t ProductType) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.typeIdx[t.Name]; ok {
		s.types[i] = t
		return nil
	}
	s.typeIdx[t.Name] = len(s.types)
	s.types = append(s.types, t)
	return nil
}

func (s *MemoryStore) ListMaterials(_ context.Context) ([]Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Material(nil), s.materials...), nil
}

func (s *MemoryStore) GetMaterial(_ context.Context, name string) (*Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.materialIdx[name]
	if !ok {
		return nil, fmt.Errorf("material %q: %w", name, ErrNotFound)
	}
	m := s.materials[i]
	return &m, nil
}

func (s *MemoryStore) PutMaterial(_ context.Context, m Material) error {
	if err := m.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.materialIdx[m.Name]; ok {
		s.materials[i] = m
		return nil
	}
	s.materialIdx[m.Name] = len(s.materials)
	s.materials = append(s.materials, m)
	return nil
}

func (s *MemoryStore) ListWorkshops(_ context.Context) ([]Workshop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Workshop(nil), s.workshops...), nil
}

func (s *MemoryStore) PutWorkshop(_ context.Context, w Workshop) error {
	if err := w.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.workshopIdx[w.Name]; ok {
		s.workshops[i] = w
		return nil
	}
	s.workshopIdx[w.Name] = len(s.workshops)
	s.workshops = append(s.workshops, w)
	return nil
}

/* Product ↔ Workshop */

func (s *MemoryStore) ListWorkshopsForProduct(_ context.Context, productID int64) ([]WorkshopHours, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.productIdx[productID]; !ok {
		return nil, productNotFound(productID)
	}
	out := []WorkshopHours{}
	for _, l := range s.links {
		if l.ProductID != productID {
			continue
		}
		out = append(out, WorkshopHours{
			Workshop: s.workshops[s.workshopIdx[l.WorkshopName]],
			Hours:    l.Hours,
		})
	}
	return out, nil
}

func (s *MemoryStore) ListProductWorkshopsByProduct(_ context.Context, productID int64) ([]ProductWorkshopRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.productIdx[productID]
	if !ok {
		return nil, productNotFound(productID)
	}
	name := s.products[i].Name
	out := []ProductWorkshopRow{}
	for _, l := range s.links {
		if l.ProductID == productID {
			out = append(out, ProductWorkshopRow{
				ProductID:    productID,
				ProductName:  name,
				WorkshopName: l.WorkshopName,
				Hours:        l.Hours,
			})
		}
	}
	return out, nil
}

func (s *MemoryStore) ListProductWorkshops(_ context.Context) ([]ProductWorkshopRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ProductWorkshopRow, 0, len(s.links))
	for _, l := range s.links {
		out = append(out, ProductWorkshopRow{
			ProductID:    l.ProductID,
			ProductName:  s.products[s.productIdx[l.ProductID]].Name,
			WorkshopName: l.WorkshopName,
			Hours:        l.Hours,
		})
	}
	return out, nil
}

func (s *MemoryStore) SetProductWorkshop(_ context.Context, productID int64, workshopName string, hours float64) error {
	if err := validateHours(hours); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.productIdx[productID]; !ok {
		return productNotFound(productID)
	}
	if _, ok := s.workshopIdx[workshopName]; !ok {
		return workshopNotFound(workshopName)
	}
	k := linkKey{productID: productID, workshop: workshopName}
	if i, ok := s.linkIdx[k]; ok {
		s.links[i].Hours = hours
		return nil
	}
	s.linkIdx[k] = len(s.links)
	s.links = append(s.links, ProductWorkshop{ProductID: productID, WorkshopName: workshopName, Hours: hours})
	return nil
}

func (s *MemoryStore) RemoveProductWorkshop(_ context.Context, productID int64, workshopName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := linkKey{productID: productID, workshop: workshopName}
	i, ok := s.linkIdx[k]
	if !ok {
		return fmt.Errorf("product %d in workshop %q: %w", productID, workshopName, ErrNotFound)
	}
	s.links = append(s.links[:i], s.links[i+1:]...)
	s.reindexLinks()
	return nil
}

func (s *MemoryStore) reindexLinks() {
	s.linkIdx = make(map[linkKey]int, len(s.links))
	for i, l := range s.links {
		s.linkIdx[linkKey{productID: l.ProductID, workshop: l.WorkshopName}] = i
	}
}

func copyProduct(p Product) Product {
	p.ProductTypeName = cloneName(p.ProductTypeName)
	p.MainMaterialName = cloneName(p.MainMaterialName)
	return p
}
