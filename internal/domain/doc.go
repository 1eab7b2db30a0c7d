// Package domain holds the value types shared by the storefront containers.
//
// Catalog entries (Product, Category) are immutable for the life of a process.
// Order snapshots (Order, OrderItem) are copied out of the cart at placement time
// and never refer back to the live catalog, so historical orders keep the price
// that was charged.
//
// JSON field names are the persisted shape; every container stores its state as
// a JSON document under a fixed storage key.
package domain
