package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/voxtill/voxtill-backend/pkg/db/models"
	pkgerrors "github.com/voxtill/voxtill-backend/pkg/errors"
)

func newCatalogDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Product{}))
	return conn
}

func TestFindByNameIsCaseInsensitive(t *testing.T) {
	repo := NewRepository(newCatalogDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, &models.Product{
		ID:       uuid.New(),
		Name:     "Cola",
		Category: "drinks",
		Unit:     "bottle",
	})
	require.NoError(t, err)

	product, err := repo.FindByName(ctx, "  cOLa ")
	require.NoError(t, err)
	require.Equal(t, "Cola", product.Name)
	require.Equal(t, "drinks", product.Category)
}

func TestCreateDuplicateNameIsConflict(t *testing.T) {
	repo := NewRepository(newCatalogDB(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, &models.Product{ID: uuid.New(), Name: "Cola"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.Product{ID: uuid.New(), Name: "Cola"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeConflict, typed.Code())
}
