package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"normcalc/internal/domain"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dbPath == ":memory:" {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS materials (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		unit TEXT NOT NULL,
		category TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS material_norms (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		context_type TEXT NOT NULL,
		material_code TEXT NOT NULL,
		formula TEXT NOT NULL,
		description TEXT,
		position INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (material_code) REFERENCES materials(code) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS calculations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS network_nodes (
		id TEXT PRIMARY KEY,
		calculation_id TEXT NOT NULL,
		name TEXT,
		mount_surface TEXT,
		cabinet_size INTEGER,
		base_circuit_breakers INTEGER,
		extra_circuit_breakers INTEGER,
		base_sockets INTEGER,
		extra_sockets INTEGER,
		incoming_lines_count INTEGER,
		FOREIGN KEY (calculation_id) REFERENCES calculations(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS endpoint_devices (
		id TEXT PRIMARY KEY,
		calculation_id TEXT NOT NULL,
		name TEXT,
		device_type TEXT,
		mount_surface TEXT,
		node_id TEXT,
		FOREIGN KEY (calculation_id) REFERENCES calculations(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS topology_links (
		id TEXT PRIMARY KEY,
		calculation_id TEXT NOT NULL,
		link_type TEXT,
		wireless INTEGER NOT NULL DEFAULT 0,
		cable_length REAL,
		fiber_cores INTEGER,
		fiber_splice_count INTEGER,
		fiber_connector_count INTEGER,
		from_node_id TEXT,
		to_node_id TEXT,
		from_device_id TEXT,
		to_device_id TEXT,
		FOREIGN KEY (calculation_id) REFERENCES calculations(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS installation_routes (
		id TEXT PRIMARY KEY,
		calculation_id TEXT NOT NULL,
		name TEXT,
		route_type TEXT,
		length_meters REAL,
		orientation TEXT,
		mount_surface TEXT,
		fixing_method TEXT,
		main_material_code TEXT,
		FOREIGN KEY (calculation_id) REFERENCES calculations(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS route_segment_links (
		route_id TEXT NOT NULL,
		link_id TEXT NOT NULL,
		portion_ratio REAL,
		PRIMARY KEY (route_id, link_id),
		FOREIGN KEY (route_id) REFERENCES installation_routes(id) ON DELETE CASCADE,
		FOREIGN KEY (link_id) REFERENCES topology_links(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_norms_context ON material_norms(context_type);
	CREATE INDEX IF NOT EXISTS idx_nodes_calculation ON network_nodes(calculation_id);
	CREATE INDEX IF NOT EXISTS idx_devices_calculation ON endpoint_devices(calculation_id);
	CREATE INDEX IF NOT EXISTS idx_links_calculation ON topology_links(calculation_id);
	CREATE INDEX IF NOT EXISTS idx_routes_calculation ON installation_routes(calculation_id);
	CREATE INDEX IF NOT EXISTS idx_segments_link ON route_segment_links(link_id);
	`

	_, err := r.db.Exec(schema)
	return err
}

// ============================================================================
// Catalog
// ============================================================================

// ListMaterials returns every material ordered by code
func (r *Repository) ListMaterials(ctx context.Context) ([]domain.Material, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code, name, unit, category FROM materials ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query materials: %w", err)
	}
	defer rows.Close()

	materials := make([]domain.Material, 0)
	for rows.Next() {
		var m domain.Material
		var category sql.NullString
		if err := rows.Scan(&m.Code, &m.Name, &m.Unit, &category); err != nil {
			return nil, fmt.Errorf("failed to scan material: %w", err)
		}
		m.Category = nullToString(category)
		materials = append(materials, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating materials: %w", err)
	}
	return materials, nil
}

// MaterialByCode returns a material, or nil if the code is unknown
func (r *Repository) MaterialByCode(ctx context.Context, code string) (*domain.Material, error) {
	var m domain.Material
	var category sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT code, name, unit, category FROM materials WHERE code = ?
	`, code).Scan(&m.Code, &m.Name, &m.Unit, &category)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get material: %w", err)
	}
	m.Category = nullToString(category)
	return &m, nil
}

// ListNorms returns every norm in catalog order
func (r *Repository) ListNorms(ctx context.Context) ([]domain.MaterialNorm, error) {
	return r.queryNorms(ctx, `SELECT `+normColumns+` FROM material_norms n
		JOIN materials m ON m.code = n.material_code
		ORDER BY n.position, n.id`)
}

// NormsByContextType returns the norms of one context in catalog order
func (r *Repository) NormsByContextType(ctx context.Context, contextType string) ([]domain.MaterialNorm, error) {
	return r.queryNorms(ctx, `SELECT `+normColumns+` FROM material_norms n
		JOIN materials m ON m.code = n.material_code
		WHERE n.context_type = ?
		ORDER BY n.position, n.id`, contextType)
}

func (r *Repository) queryNorms(ctx context.Context, query string, args ...any) ([]domain.MaterialNorm, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query norms: %w", err)
	}
	defer rows.Close()

	norms := make([]domain.MaterialNorm, 0)
	for rows.Next() {
		var row normRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan norm: %w", err)
		}
		norms = append(norms, row.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating norms: %w", err)
	}
	return norms, nil
}

// ImportCatalog upserts materials and replaces the whole norm set
func (r *Repository) ImportCatalog(ctx context.Context, catalog *domain.Catalog) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	materialStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO materials (code, name, unit, category, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			unit = excluded.unit,
			category = excluded.category,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare material statement: %w", err)
	}
	defer materialStmt.Close()

	now := time.Now()
	for _, m := range catalog.Materials {
		if _, err := materialStmt.ExecContext(ctx, m.Code, m.Name, m.Unit, stringToNull(m.Category), now); err != nil {
			return fmt.Errorf("failed to insert material %s: %w", m.Code, err)
		}
	}

	// norms may reference materials the catalog does not list
	for _, n := range catalog.Norms {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO materials (code, name, unit, category) VALUES (?, ?, ?, ?)
		`, n.Material.Code, defaultString(n.Material.Name, n.Material.Code), n.Material.Unit, stringToNull(n.Material.Category)); err != nil {
			return fmt.Errorf("failed to insert norm material %s: %w", n.Material.Code, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM material_norms`); err != nil {
		return fmt.Errorf("failed to clear norms: %w", err)
	}

	normStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO material_norms (context_type, material_code, formula, description, position)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare norm statement: %w", err)
	}
	defer normStmt.Close()

	for i, n := range catalog.Norms {
		if _, err := normStmt.ExecContext(ctx, n.ContextType, n.Material.Code, n.Formula, stringToNull(n.Description), i); err != nil {
			return fmt.Errorf("failed to insert norm %s/%s: %w", n.ContextType, n.Material.Code, err)
		}
	}

	return tx.Commit()
}

// ============================================================================
// Calculations and topology
// ============================================================================

// GetCalculation returns a calculation, or nil if it does not exist
func (r *Repository) GetCalculation(ctx context.Context, id string) (*domain.Calculation, error) {
	var c domain.Calculation
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM calculations WHERE id = ?
	`, id).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get calculation: %w", err)
	}
	return &c, nil
}

// ListCalculations returns every calculation, newest first
func (r *Repository) ListCalculations(ctx context.Context) ([]domain.Calculation, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM calculations ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query calculations: %w", err)
	}
	defer rows.Close()

	calcs := make([]domain.Calculation, 0)
	for rows.Next() {
		var c domain.Calculation
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan calculation: %w", err)
		}
		calcs = append(calcs, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating calculations: %w", err)
	}
	return calcs, nil
}

// DeleteCalculation removes a calculation and, by cascade, its entities
func (r *Repository) DeleteCalculation(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM calculations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete calculation: %w", err)
	}
	return nil
}

// NetworkNodes returns the nodes of a calculation
func (r *Repository) NetworkNodes(ctx context.Context, calculationID string) ([]domain.NetworkNode, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+nodeColumns+` FROM network_nodes WHERE calculation_id = ? ORDER BY id
	`, calculationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	nodes := make([]domain.NetworkNode, 0)
	for rows.Next() {
		var row nodeRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		nodes = append(nodes, row.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}
	return nodes, nil
}

// EndpointDevices returns the devices of a calculation
func (r *Repository) EndpointDevices(ctx context.Context, calculationID string) ([]domain.EndpointDevice, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, calculation_id, name, device_type, mount_surface, node_id
		FROM endpoint_devices WHERE calculation_id = ? ORDER BY id
	`, calculationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	devices := make([]domain.EndpointDevice, 0)
	for rows.Next() {
		var d domain.EndpointDevice
		var name, deviceType, surface, nodeID sql.NullString
		if err := rows.Scan(&d.ID, &d.CalculationID, &name, &deviceType, &surface, &nodeID); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		d.Name = nullToString(name)
		d.DeviceType = nullToString(deviceType)
		d.MountSurface = nullToString(surface)
		d.NodeID = nullToString(nodeID)
		devices = append(devices, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating devices: %w", err)
	}
	return devices, nil
}

// TopologyLinks returns the links of a calculation
func (r *Repository) TopologyLinks(ctx context.Context, calculationID string) ([]domain.TopologyLink, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+linkColumns+` FROM topology_links WHERE calculation_id = ? ORDER BY id
	`, calculationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	links := make([]domain.TopologyLink, 0)
	for rows.Next() {
		var row linkRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, row.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}
	return links, nil
}

// InstallationRoutes returns the routes of a calculation
func (r *Repository) InstallationRoutes(ctx context.Context, calculationID string) ([]domain.InstallationRoute, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, calculation_id, name, route_type, length_meters, orientation,
			mount_surface, fixing_method, main_material_code
		FROM installation_routes WHERE calculation_id = ? ORDER BY id
	`, calculationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	defer rows.Close()

	routes := make([]domain.InstallationRoute, 0)
	for rows.Next() {
		var rt domain.InstallationRoute
		var name, routeType, orientation, surface, fixing, mainMaterial sql.NullString
		var length sql.NullFloat64
		if err := rows.Scan(&rt.ID, &rt.CalculationID, &name, &routeType, &length,
			&orientation, &surface, &fixing, &mainMaterial); err != nil {
			return nil, fmt.Errorf("failed to scan route: %w", err)
		}
		rt.Name = nullToString(name)
		rt.RouteType = nullToString(routeType)
		rt.LengthMeters = nullToFloatPtr(length)
		rt.Orientation = nullToString(orientation)
		rt.MountSurface = nullToString(surface)
		rt.FixingMethod = nullToString(fixing)
		rt.MainMaterialCode = nullToString(mainMaterial)
		routes = append(routes, rt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating routes: %w", err)
	}
	return routes, nil
}

// RouteSegments returns the links running through a route
func (r *Repository) RouteSegments(ctx context.Context, routeID string) ([]domain.RouteSegmentLink, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT route_id, link_id, portion_ratio FROM route_segment_links
		WHERE route_id = ? ORDER BY link_id
	`, routeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query route segments: %w", err)
	}
	defer rows.Close()

	segments := make([]domain.RouteSegmentLink, 0)
	for rows.Next() {
		var s domain.RouteSegmentLink
		var ratio sql.NullFloat64
		if err := rows.Scan(&s.RouteID, &s.LinkID, &ratio); err != nil {
			return nil, fmt.Errorf("failed to scan route segment: %w", err)
		}
		s.PortionRatio = nullToFloatPtr(ratio)
		segments = append(segments, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating route segments: %w", err)
	}
	return segments, nil
}

// ImportProject replaces a calculation and all of its entities
func (r *Repository) ImportProject(ctx context.Context, project *domain.Project) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	calc := project.Calculation
	if calc.CreatedAt.IsZero() {
		calc.CreatedAt = time.Now()
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM calculations WHERE id = ?`, calc.ID); err != nil {
		return fmt.Errorf("failed to clear calculation: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO calculations (id, name, created_at) VALUES (?, ?, ?)
	`, calc.ID, calc.Name, calc.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert calculation: %w", err)
	}

	nodeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO network_nodes (`+nodeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare node statement: %w", err)
	}
	defer nodeStmt.Close()

	for _, n := range project.Nodes {
		if _, err := nodeStmt.ExecContext(ctx, nodeInsertArgs(calc.ID, n)...); err != nil {
			return fmt.Errorf("failed to insert node %s: %w", n.ID, err)
		}
	}

	deviceStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO endpoint_devices (id, calculation_id, name, device_type, mount_surface, node_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare device statement: %w", err)
	}
	defer deviceStmt.Close()

	for _, d := range project.Devices {
		if _, err := deviceStmt.ExecContext(ctx, d.ID, calc.ID, stringToNull(d.Name), stringToNull(d.DeviceType),
			stringToNull(d.MountSurface), stringToNull(d.NodeID)); err != nil {
			return fmt.Errorf("failed to insert device %s: %w", d.ID, err)
		}
	}

	linkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO topology_links (`+linkColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare link statement: %w", err)
	}
	defer linkStmt.Close()

	for _, l := range project.Links {
		if _, err := linkStmt.ExecContext(ctx, linkInsertArgs(calc.ID, l)...); err != nil {
			return fmt.Errorf("failed to insert link %s: %w", l.ID, err)
		}
	}

	routeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO installation_routes (id, calculation_id, name, route_type, length_meters,
			orientation, mount_surface, fixing_method, main_material_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare route statement: %w", err)
	}
	defer routeStmt.Close()

	for _, rt := range project.Routes {
		if _, err := routeStmt.ExecContext(ctx, rt.ID, calc.ID, stringToNull(rt.Name), stringToNull(rt.RouteType),
			floatPtrToNull(rt.LengthMeters), stringToNull(rt.Orientation), stringToNull(rt.MountSurface),
			stringToNull(rt.FixingMethod), stringToNull(rt.MainMaterialCode)); err != nil {
			return fmt.Errorf("failed to insert route %s: %w", rt.ID, err)
		}
	}

	segmentStmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO route_segment_links (route_id, link_id, portion_ratio) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare segment statement: %w", err)
	}
	defer segmentStmt.Close()

	for _, s := range project.Segments {
		if _, err := segmentStmt.ExecContext(ctx, s.RouteID, s.LinkID, floatPtrToNull(s.PortionRatio)); err != nil {
			return fmt.Errorf("failed to insert segment %s/%s: %w", s.RouteID, s.LinkID, err)
		}
	}

	return tx.Commit()
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
