// Package dbtest opens throwaway in-memory SQLite databases carrying the
// storefront schema, for repository tests.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Schema mirrors the goose migrations with SQLite column types.
const Schema = `
CREATE TABLE products (
  id TEXT PRIMARY KEY,
  sku TEXT NOT NULL,
  name TEXT NOT NULL,
  permalink TEXT NOT NULL,
  price TEXT NOT NULL,
  regular_price TEXT NOT NULL,
  on_sale INTEGER NOT NULL DEFAULT 0,
  stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
  stock_status TEXT NOT NULL DEFAULT 'instock',
  weight INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'draft',
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE media (
  id TEXT PRIMARY KEY,
  src TEXT NOT NULL,
  name TEXT NOT NULL,
  alt TEXT NOT NULL DEFAULT '',
  date_created DATETIME,
  date_modified DATETIME
);
CREATE TABLE product_media (
  product_id TEXT NOT NULL,
  media_id TEXT NOT NULL,
  position INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (product_id, media_id)
);
CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  order_key TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'pending',
  currency TEXT NOT NULL,
  prices_include_tax INTEGER NOT NULL,
  discount_total TEXT NOT NULL,
  discount_tax TEXT NOT NULL,
  shipping_total TEXT NOT NULL,
  shipping_tax TEXT NOT NULL,
  cart_tax TEXT NOT NULL,
  total TEXT NOT NULL,
  total_tax TEXT NOT NULL,
  customer_ip_address TEXT NOT NULL,
  customer_user_agent TEXT NOT NULL,
  customer_note TEXT NOT NULL DEFAULT '',
  billing TEXT NOT NULL,
  shipping TEXT NOT NULL,
  payment_method TEXT NOT NULL,
  payment_method_title TEXT NOT NULL,
  cart_hash TEXT NOT NULL,
  date_created DATETIME,
  date_modified DATETIME
);
CREATE TABLE order_line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  sku TEXT NOT NULL,
  name TEXT NOT NULL,
  price TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  subtotal TEXT NOT NULL,
  subtotal_tax TEXT NOT NULL,
  total TEXT NOT NULL,
  total_tax TEXT NOT NULL,
  position INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE order_shipping_lines (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  method_title TEXT NOT NULL,
  total TEXT NOT NULL,
  total_tax TEXT NOT NULL
);
CREATE TABLE outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload BLOB NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`

// Open returns a fresh database named after prefix with the schema applied.
func Open(t testing.TB, prefix string) *gorm.DB {
	t.Helper()

	dsn := "file:" + prefix + "_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Exec(Schema).Error; err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
