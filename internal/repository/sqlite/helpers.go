package sqlite

import (
	"database/sql"

	"normcalc/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullToIntPtr converts sql.NullInt64 to *int (nil when NULL)
func nullToIntPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}

// intPtrToNull converts *int to sql.NullInt64
func intPtrToNull(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

// nullToFloatPtr converts sql.NullFloat64 to *float64 (nil when NULL)
func nullToFloatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	v := nf.Float64
	return &v
}

// floatPtrToNull converts *float64 to sql.NullFloat64
func floatPtrToNull(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// ============================================================================
// Schema Evolution Guide
// ============================================================================
//
// To add a column to network_nodes or topology_links:
// 1. Add field to the row struct (below)
// 2. APPEND to scanArgs() and to the *Columns constant
// 3. APPEND to the *InsertArgs() function
// 4. Map it in toDomain()
// 5. Add the column in migrate()
//
// Column order must match between the *Columns constant, scanArgs() and
// *InsertArgs().

// ============================================================================
// Norm Row Scanner
// ============================================================================

const normColumns = `n.id, n.context_type, n.formula, n.description,
	m.code, m.name, m.unit, m.category`

type normRow struct {
	ID          int64
	ContextType string
	Formula     string
	Description sql.NullString
	Code        string
	Name        string
	Unit        string
	Category    sql.NullString
}

func (r *normRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,
		&r.ContextType,
		&r.Formula,
		&r.Description,
		&r.Code,
		&r.Name,
		&r.Unit,
		&r.Category,
	}
}

func (r *normRow) toDomain() domain.MaterialNorm {
	return domain.MaterialNorm{
		ID:          r.ID,
		ContextType: r.ContextType,
		Formula:     r.Formula,
		Description: nullToString(r.Description),
		Material: domain.Material{
			Code:     r.Code,
			Name:     r.Name,
			Unit:     r.Unit,
			Category: nullToString(r.Category),
		},
	}
}

// ============================================================================
// Node Row Scanner
// ============================================================================

const nodeColumns = `id, calculation_id, name, mount_surface, cabinet_size,
	base_circuit_breakers, extra_circuit_breakers, base_sockets, extra_sockets,
	incoming_lines_count`

type nodeRow struct {
	ID                   string
	CalculationID        string
	Name                 sql.NullString
	MountSurface         sql.NullString
	CabinetSize          sql.NullInt64
	BaseCircuitBreakers  sql.NullInt64
	ExtraCircuitBreakers sql.NullInt64
	BaseSockets          sql.NullInt64
	ExtraSockets         sql.NullInt64
	IncomingLinesCount   sql.NullInt64
}

// scanArgs MUST match nodeColumns order exactly
func (r *nodeRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,                   // 1
		&r.CalculationID,        // 2
		&r.Name,                 // 3
		&r.MountSurface,         // 4
		&r.CabinetSize,          // 5
		&r.BaseCircuitBreakers,  // 6
		&r.ExtraCircuitBreakers, // 7
		&r.BaseSockets,          // 8
		&r.ExtraSockets,         // 9
		&r.IncomingLinesCount,   // 10
	}
}

func (r *nodeRow) toDomain() domain.NetworkNode {
	return domain.NetworkNode{
		ID:                   r.ID,
		CalculationID:        r.CalculationID,
		Name:                 nullToString(r.Name),
		MountSurface:         nullToString(r.MountSurface),
		CabinetSize:          nullToIntPtr(r.CabinetSize),
		BaseCircuitBreakers:  nullToIntPtr(r.BaseCircuitBreakers),
		ExtraCircuitBreakers: nullToIntPtr(r.ExtraCircuitBreakers),
		BaseSockets:          nullToIntPtr(r.BaseSockets),
		ExtraSockets:         nullToIntPtr(r.ExtraSockets),
		IncomingLinesCount:   nullToIntPtr(r.IncomingLinesCount),
	}
}

func nodeInsertArgs(calculationID string, n domain.NetworkNode) []interface{} {
	return []interface{}{
		n.ID,
		calculationID,
		stringToNull(n.Name),
		stringToNull(n.MountSurface),
		intPtrToNull(n.CabinetSize),
		intPtrToNull(n.BaseCircuitBreakers),
		intPtrToNull(n.ExtraCircuitBreakers),
		intPtrToNull(n.BaseSockets),
		intPtrToNull(n.ExtraSockets),
		intPtrToNull(n.IncomingLinesCount),
	}
}

// ============================================================================
// Link Row Scanner
// ============================================================================

const linkColumns = `id, calculation_id, link_type, wireless, cable_length,
	fiber_cores, fiber_splice_count, fiber_connector_count,
	from_node_id, to_node_id, from_device_id, to_device_id`

type linkRow struct {
	ID                  string
	CalculationID       string
	LinkType            sql.NullString
	Wireless            sql.NullInt64
	CableLength         sql.NullFloat64
	FiberCores          sql.NullInt64
	FiberSpliceCount    sql.NullInt64
	FiberConnectorCount sql.NullInt64
	FromNodeID          sql.NullString
	ToNodeID            sql.NullString
	FromDeviceID        sql.NullString
	ToDeviceID          sql.NullString
}

// scanArgs MUST match linkColumns order exactly
func (r *linkRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,                  // 1
		&r.CalculationID,       // 2
		&r.LinkType,            // 3
		&r.Wireless,            // 4
		&r.CableLength,         // 5
		&r.FiberCores,          // 6
		&r.FiberSpliceCount,    // 7
		&r.FiberConnectorCount, // 8
		&r.FromNodeID,          // 9
		&r.ToNodeID,            // 10
		&r.FromDeviceID,        // 11
		&r.ToDeviceID,          // 12
	}
}

func (r *linkRow) toDomain() domain.TopologyLink {
	return domain.TopologyLink{
		ID:                  r.ID,
		CalculationID:       r.CalculationID,
		LinkType:            nullToString(r.LinkType),
		Wireless:            r.Wireless.Valid && r.Wireless.Int64 != 0,
		CableLength:         nullToFloatPtr(r.CableLength),
		FiberCores:          nullToIntPtr(r.FiberCores),
		FiberSpliceCount:    nullToIntPtr(r.FiberSpliceCount),
		FiberConnectorCount: nullToIntPtr(r.FiberConnectorCount),
		FromNodeID:          nullToString(r.FromNodeID),
		ToNodeID:            nullToString(r.ToNodeID),
		FromDeviceID:        nullToString(r.FromDeviceID),
		ToDeviceID:          nullToString(r.ToDeviceID),
	}
}

func linkInsertArgs(calculationID string, l domain.TopologyLink) []interface{} {
	wireless := 0
	if l.Wireless {
		wireless = 1
	}
	return []interface{}{
		l.ID,
		calculationID,
		stringToNull(l.LinkType),
		wireless,
		floatPtrToNull(l.CableLength),
		intPtrToNull(l.FiberCores),
		intPtrToNull(l.FiberSpliceCount),
		intPtrToNull(l.FiberConnectorCount),
		stringToNull(l.FromNodeID),
		stringToNull(l.ToNodeID),
		stringToNull(l.FromDeviceID),
		stringToNull(l.ToDeviceID),
	}
}
