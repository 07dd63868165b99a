package settings

import (
	"testing"

	"agri_market/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.SiteSetting{}))
	return db
}

func TestFloatFallbacks(t *testing.T) {
	db := newTestDB(t)
	s := NewStore(db)

	// 缺 key：回退默认
	require.Equal(t, 600.0, s.Float(KeyFreeShippingThreshold, 600.0))

	// 脏值：同样回退，不报错
	require.NoError(t, s.Put(KeyFreeShippingThreshold, "not-a-number"))
	require.Equal(t, 600.0, s.Float(KeyFreeShippingThreshold, 600.0))

	// 正常值
	require.NoError(t, s.Put(KeyFreeShippingThreshold, "750"))
	require.Equal(t, 750.0, s.Float(KeyFreeShippingThreshold, 600.0))
}

func TestPutOverwritesAndReadsFresh(t *testing.T) {
	db := newTestDB(t)
	s := NewStore(db)

	require.NoError(t, s.Put(KeyCommissionRate, "0.10"))
	require.Equal(t, 0.10, s.Float(KeyCommissionRate, 0))

	// 改参数后下一次读取立即生效（无进程级缓存）
	require.NoError(t, s.Put(KeyCommissionRate, "0.15"))
	require.Equal(t, 0.15, s.Float(KeyCommissionRate, 0))
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, SeedDefaults(db))

	// 人工改过的值不会被再次 seed 覆盖
	s := NewStore(db)
	require.NoError(t, s.Put(KeyShippingFee, "80"))
	require.NoError(t, SeedDefaults(db))
	require.Equal(t, 80.0, s.Float(KeyShippingFee, 0))

	all, err := s.All()
	require.NoError(t, err)
	require.Len(t, all, 4)
}
