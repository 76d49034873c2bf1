package products

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/catalog/internal/shared"
)

func newTestService(t *testing.T) (*Service, Repository) {
	t.Helper()
	repo := NewMemoryRepository()
	return NewService(repo, 50), repo
}

func mustCreate(t *testing.T, s *Service, name, barcode string) int64 {
	t.Helper()
	resp, err := s.Create(context.Background(), CreateProductRequest{Name: name, Barcode: barcode, Rate: 1})
	require.NoError(t, err)
	return resp.Data
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	created, err := s.Create(ctx, CreateProductRequest{Name: "Widget", Barcode: "W-1", Description: "", Rate: 9.99})
	require.NoError(t, err)
	assert.True(t, created.Succeeded)
	assert.Positive(t, created.Data)

	got, err := s.Get(ctx, created.Data)
	require.NoError(t, err)
	assert.True(t, got.Succeeded)
	assert.Equal(t, ProductResponse{Name: "Widget", Barcode: "W-1", Description: "", Rate: 9.99}, got.Data)
}

func TestCreateRejectsDuplicateBarcodeBeforeWriting(t *testing.T) {
	s, repo := newTestService(t)
	ctx := context.Background()
	mustCreate(t, s, "First", "X")

	_, err := s.Create(ctx, CreateProductRequest{Name: "Second", Barcode: "X", Rate: 2})
	var validation *shared.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, []string{"Barcode 'X' already exists."}, validation.Messages)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestConcurrentCreatesKeepBarcodeUnique(t *testing.T) {
	s, repo := newTestService(t)
	ctx := context.Background()

	const writers = 16
	var (
		wg       sync.WaitGroup
		created  atomic.Int32
		rejected atomic.Int32
		failed   atomic.Int32
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Create(ctx, CreateProductRequest{Name: fmt.Sprintf("P%d", i), Barcode: "SAME", Rate: 1})
			var validation *shared.ValidationError
			switch {
			case err == nil:
				created.Add(1)
			case errors.As(err, &validation):
				rejected.Add(1)
			default:
				failed.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(writers-1), rejected.Load())
	assert.Zero(t, failed.Load())
	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestCreateValidationMessagesKeepFieldOrder(t *testing.T) {
	s, repo := newTestService(t)

	_, err := s.Create(context.Background(), CreateProductRequest{Rate: -1})
	var validation *shared.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, []string{
		"'name' must not be empty.",
		"'barcode' must not be empty.",
		"'rate' must be greater than or equal to '0'.",
	}, validation.Messages)

	total, _ := repo.Count(context.Background())
	assert.Zero(t, total)
}

func TestMissingProductIsNotFound(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, getErr := s.Get(ctx, 7)
	_, updErr := s.Update(ctx, 7, UpdateProductRequest{ID: 7, Name: "X", Rate: 1.0, Description: "d"})
	_, delErr := s.Delete(ctx, 7)

	for _, err := range []error{getErr, updErr, delErr} {
		var notFound *shared.NotFoundError
		require.True(t, errors.As(err, &notFound), "got %v", err)
		assert.Equal(t, "Product Not Found.", notFound.Message)
		assert.Contains(t, notFound.Message, ResourceName)
	}
}

func TestUpdateOverwritesMutableFieldsOnly(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	id := mustCreate(t, s, "Old", "B-1")

	resp, err := s.Update(ctx, id, UpdateProductRequest{ID: id, Name: "New", Description: "desc", Rate: 4.5})
	require.NoError(t, err)
	assert.Equal(t, id, resp.Data)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, ProductResponse{Name: "New", Barcode: "B-1", Description: "desc", Rate: 4.5}, got.Data)
}

func TestUpdateRejectsIDMismatch(t *testing.T) {
	s, _ := newTestService(t)
	id := mustCreate(t, s, "Item", "B-2")

	_, err := s.Update(context.Background(), id, UpdateProductRequest{ID: id + 1, Name: "Item"})
	var validation *shared.ValidationError
	assert.True(t, errors.As(err, &validation))
}

func TestDeleteRemovesProduct(t *testing.T) {
	s, repo := newTestService(t)
	ctx := context.Background()
	id := mustCreate(t, s, "Gone", "G-1")

	resp, err := s.Delete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, resp.Data)

	_, ok, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListPagesAreBoundedAndDisjoint(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	for i := 0; i < 9; i++ {
		mustCreate(t, s, fmt.Sprintf("P%d", i), fmt.Sprintf("B%d", i))
	}

	first, err := s.List(ctx, 1, 4)
	require.NoError(t, err)
	second, err := s.List(ctx, 2, 4)
	require.NoError(t, err)

	assert.Len(t, first.Data, 4)
	assert.Len(t, second.Data, 4)
	ids := map[int64]bool{}
	for _, p := range append(first.Data, second.Data...) {
		assert.False(t, ids[p.ID], "product %d on both pages", p.ID)
		ids[p.ID] = true
	}

	assert.Equal(t, 1, first.PageNumber)
	assert.Equal(t, 4, first.PageSize)
	assert.Equal(t, 9, first.TotalRecords)
	assert.Equal(t, 3, first.TotalPages)
	assert.True(t, first.Succeeded)
}

func TestListBeyondDataIsEmptySuccess(t *testing.T) {
	s, _ := newTestService(t)
	mustCreate(t, s, "Only", "O-1")

	resp, err := s.List(context.Background(), 5, 10)
	require.NoError(t, err)
	assert.True(t, resp.Succeeded)
	assert.Empty(t, resp.Data)
	assert.NotNil(t, resp.Data)
}

func TestListNearIntegerLimitsIsEmptySuccess(t *testing.T) {
	s, _ := newTestService(t)
	mustCreate(t, s, "Only", "O-1")

	for _, number := range []int{math.MaxInt, math.MaxInt/2 + 2} {
		resp, err := s.List(context.Background(), number, 4)
		require.NoError(t, err)
		assert.True(t, resp.Succeeded)
		assert.Empty(t, resp.Data)
		assert.Equal(t, number, resp.PageNumber)
		assert.Equal(t, 1, resp.TotalRecords)
	}
}

func TestListClampsPageSize(t *testing.T) {
	s, _ := newTestService(t)
	resp, err := s.List(context.Background(), 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.PageNumber)
	assert.Equal(t, 50, resp.PageSize)
}

type brokenRepo struct {
	Repository
	err error
}

func (b brokenRepo) GetByID(ctx context.Context, id int64) (Product, bool, error) {
	return Product{}, false, b.err
}

func TestStoreFailureIsUnclassified(t *testing.T) {
	storeErr := errors.New("connection reset")
	s := NewService(brokenRepo{Repository: NewMemoryRepository(), err: storeErr}, 10)

	_, err := s.Get(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)

	var notFound *shared.NotFoundError
	assert.False(t, errors.As(err, &notFound))
}
