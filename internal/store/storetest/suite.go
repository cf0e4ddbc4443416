// Package storetest holds the behavior every core.Repository backend must
// share. Backend packages run it from their own tests.
package storetest

import (
	"context"
	"errors"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/JonMunkholm/stockpilot/internal/core"
)

// RepositorySuite exercises a fresh, empty repository per test.
type RepositorySuite struct {
	suite.Suite

	// Open returns an empty repository. It is called before every test.
	Open func() core.Repository

	repo core.Repository
	ctx  context.Context
}

func (s *RepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = s.Open()
	s.Require().NoError(s.repo.EnsureSchema(s.ctx))
}

func (s *RepositorySuite) TearDownTest() {
	if s.repo != nil {
		s.NoError(s.repo.Close())
	}
}

func (s *RepositorySuite) insert(name, category string, stock int) int64 {
	id, err := s.repo.InsertProduct(s.ctx, core.Product{
		Name:     name,
		Unit:     "pcs",
		Category: category,
		Brand:    "Acme",
		Stock:    stock,
		ImageURL: core.PlaceholderImageURL(name),
	})
	s.Require().NoError(err)
	return id
}

func (s *RepositorySuite) TestEnsureSchemaIsIdempotent() {
	s.Require().NoError(s.repo.EnsureSchema(s.ctx))
	s.Require().NoError(s.repo.EnsureSchema(s.ctx))
}

func (s *RepositorySuite) TestInsertAndGet() {
	id := s.insert("Widget", "Tools", 5)

	p, err := s.repo.GetProduct(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(id, p.ID)
	s.Equal("Widget", p.Name)
	s.Equal(5, p.Stock)
	s.Equal(core.StatusInStock, p.Status())
	s.Equal(core.PlaceholderImageURL("Widget"), p.ImageURL)
}

func (s *RepositorySuite) TestGetMissing() {
	_, err := s.repo.GetProduct(s.ctx, 999)
	s.ErrorIs(err, core.ErrNoRows)
}

func (s *RepositorySuite) TestDuplicateNameIgnoresCase() {
	s.insert("Widget", "Tools", 1)

	_, err := s.repo.InsertProduct(s.ctx, core.Product{Name: "WIDGET", Unit: "pcs", Category: "Tools", Brand: "Acme"})
	s.ErrorIs(err, core.ErrDuplicateName)

	count, err := s.repo.CountProducts(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(1, count)
}

func (s *RepositorySuite) TestDuplicateNameIgnoresUnicodeCase() {
	id := s.insert("Éclair", "Bakery", 1)

	_, err := s.repo.InsertProduct(s.ctx, core.Product{Name: "éclair", Unit: "pcs", Category: "Bakery", Brand: "Acme"})
	s.ErrorIs(err, core.ErrDuplicateName)

	got, err := s.repo.FindProductIDByName(s.ctx, "ÉCLAIR")
	s.Require().NoError(err)
	s.Equal(id, got)

	found, err := s.repo.SearchProducts(s.ctx, "éCL")
	s.Require().NoError(err)
	s.Equal([]string{"Éclair"}, names(found))

	idx, err := s.repo.ProductNameIndex(s.ctx)
	s.Require().NoError(err)
	s.Equal(map[string]int64{"éclair": id}, idx)
}

func (s *RepositorySuite) TestListOrderAndCategory() {
	a := s.insert("Alpha", "Tools", 1)
	b := s.insert("Beta", "Toys", 2)
	c := s.insert("Gamma", "Tools", 3)

	all, err := s.repo.ListProducts(s.ctx, "")
	s.Require().NoError(err)
	s.Equal([]int64{c, b, a}, ids(all))

	tools, err := s.repo.ListProducts(s.ctx, "Tools")
	s.Require().NoError(err)
	s.Equal([]int64{c, a}, ids(tools))

	none, err := s.repo.ListProducts(s.ctx, "tools")
	s.Require().NoError(err)
	s.Empty(none, "category match is exact")

	byID, err := s.repo.ListProductsByID(s.ctx)
	s.Require().NoError(err)
	s.Equal([]int64{a, b, c}, ids(byID))
}

func (s *RepositorySuite) TestSearch() {
	s.insert("Blue Widget", "Tools", 1)
	s.insert("Red widget", "Tools", 1)
	s.insert("Gadget", "Tools", 1)
	s.insert("100% Cotton", "Apparel", 1)
	s.insert("100 Cotton", "Apparel", 1)

	got, err := s.repo.SearchProducts(s.ctx, "WIDGET")
	s.Require().NoError(err)
	s.ElementsMatch([]string{"Blue Widget", "Red widget"}, names(got))

	got, err = s.repo.SearchProducts(s.ctx, "0%")
	s.Require().NoError(err)
	s.Equal([]string{"100% Cotton"}, names(got), "percent sign is literal")

	got, err = s.repo.SearchProducts(s.ctx, "_")
	s.Require().NoError(err)
	s.Empty(got, "underscore is literal")
}

func (s *RepositorySuite) TestFindProductIDByName() {
	id := s.insert("Widget", "Tools", 1)

	got, err := s.repo.FindProductIDByName(s.ctx, "wIdGeT")
	s.Require().NoError(err)
	s.Equal(id, got)

	_, err = s.repo.FindProductIDByName(s.ctx, "Gadget")
	s.ErrorIs(err, core.ErrNoRows)
}

func (s *RepositorySuite) TestProductNameIndex() {
	a := s.insert("Widget", "Tools", 1)
	b := s.insert("Gadget", "Tools", 1)

	idx, err := s.repo.ProductNameIndex(s.ctx)
	s.Require().NoError(err)
	s.Equal(map[string]int64{"widget": a, "gadget": b}, idx)
}

func (s *RepositorySuite) TestUpdateProduct() {
	id := s.insert("Widget", "Tools", 5)

	err := s.repo.UpdateProduct(s.ctx, core.Product{
		ID: id, Name: "Widget Pro", Unit: "box", Category: "Tools", Brand: "Acme", Stock: 0,
	})
	s.Require().NoError(err)

	p, err := s.repo.GetProduct(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("Widget Pro", p.Name)
	s.Equal("box", p.Unit)
	s.Equal(core.StatusOutOfStock, p.Status())

	err = s.repo.UpdateProduct(s.ctx, core.Product{ID: 999, Name: "x", Unit: "x", Category: "x", Brand: "x"})
	s.ErrorIs(err, core.ErrNoRows)
}

func (s *RepositorySuite) TestInventoryLogs() {
	id := s.insert("Widget", "Tools", 5)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, stock := range []int{6, 7, 8} {
		at := base.Add(time.Duration(i) * time.Minute)
		_, err := s.repo.InsertInventoryLog(s.ctx, core.InventoryLog{
			ProductID: id, Date: at, Timestamp: at,
			OldStock: stock - 1, NewStock: stock, ChangedBy: core.DefaultChangedBy,
		})
		s.Require().NoError(err)
	}

	logs, err := s.repo.ListInventoryLogs(s.ctx, id)
	s.Require().NoError(err)
	s.Require().Len(logs, 3)
	s.Equal(8, logs[0].NewStock, "newest first")
	s.Equal(6, logs[2].NewStock)
	s.True(logs[0].Timestamp.Equal(base.Add(2*time.Minute)))
	s.Equal(core.DefaultChangedBy, logs[0].ChangedBy)

	empty, err := s.repo.ListInventoryLogs(s.ctx, 999)
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *RepositorySuite) TestDeleteCascadesLogs() {
	id := s.insert("Widget", "Tools", 5)
	now := time.Now().UTC()
	_, err := s.repo.InsertInventoryLog(s.ctx, core.InventoryLog{
		ProductID: id, Date: now, Timestamp: now, OldStock: 5, NewStock: 4, ChangedBy: core.DefaultChangedBy,
	})
	s.Require().NoError(err)

	deleted, err := s.repo.DeleteProduct(s.ctx, id)
	s.Require().NoError(err)
	s.True(deleted)

	logs, err := s.repo.ListInventoryLogs(s.ctx, id)
	s.Require().NoError(err)
	s.Empty(logs)

	deleted, err = s.repo.DeleteProduct(s.ctx, id)
	s.Require().NoError(err)
	s.False(deleted)
}

func (s *RepositorySuite) TestWithTxRollsBack() {
	boom := errors.New("boom")

	err := s.repo.WithTx(s.ctx, func(tx core.Repository) error {
		if _, err := tx.InsertProduct(s.ctx, core.Product{Name: "Widget", Unit: "pcs", Category: "Tools", Brand: "Acme"}); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	count, err := s.repo.CountProducts(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *RepositorySuite) TestWithTxCommits() {
	err := s.repo.WithTx(s.ctx, func(tx core.Repository) error {
		_, err := tx.InsertProduct(s.ctx, core.Product{Name: "Widget", Unit: "pcs", Category: "Tools", Brand: "Acme"})
		return err
	})
	s.Require().NoError(err)

	count, err := s.repo.CountProducts(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(1, count)
}

func ids(products []core.Product) []int64 {
	out := make([]int64, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func names(products []core.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}
