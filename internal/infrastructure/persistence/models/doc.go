// Package models contains GORM persistence models that map to database tables.
// Domain types stay free of ORM tags; each model converts with ToDomain and a
// ...FromDomain constructor.
//
// Files:
// - base.go: shared columns (BaseModel, AggregateModel, OrderHeaderModel)
// - order.go: purchase, sales and return orders with lines, shipments and allocations
// - stock.go: parts, supplier parts, locations, stock items, tracking and build allocations
package models
