package mock

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/lcplatform/platform/pkg/contract"
	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

// relationalState is a deliberately small SQL engine: enough of
// CREATE/DROP TABLE, INSERT, SELECT, UPDATE, and DELETE to exercise
// the datastore contract without a real database. Statements use
// positional $n parameters only.
type relationalState struct {
	tables map[string]*tableState

	// applied records migration versions, keyed to their names.
	applied map[int]string
}

type tableState struct {
	columns []string
	rows    []types.Row
	autoID  int64
}

func newRelationalState() *relationalState {
	return &relationalState{
		tables:  make(map[string]*tableState),
		applied: make(map[int]string),
	}
}

func (r *relationalState) clone() *relationalState {
	out := newRelationalState()
	for name, t := range r.tables {
		ct := &tableState{
			columns: append([]string(nil), t.columns...),
			autoID:  t.autoID,
		}
		for _, row := range t.rows {
			cr := make(types.Row, len(row))
			for k, v := range row {
				cr[k] = v
			}
			ct.rows = append(ct.rows, cr)
		}
		out.tables[name] = ct
	}
	for v, n := range r.applied {
		out.applied[v] = n
	}
	return out
}

type dataStoreService struct {
	w *world
}

func (s *dataStoreService) Connect(ctx context.Context, connectionString string) error {
	return s.w.simulate(ctx)
}

func (s *dataStoreService) Query(ctx context.Context, sql string, args ...interface{}) ([]types.Row, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	return s.w.tables.query(sql, args)
}

func (s *dataStoreService) Execute(ctx context.Context, sql string, args ...interface{}) (*types.ExecResult, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	return s.w.tables.execute(sql, args)
}

// Transaction runs fn against a copy of the store and swaps the copy
// in only when fn returns nil, so partial effects never land.
func (s *dataStoreService) Transaction(ctx context.Context, fn func(tx contract.Tx) error) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	snapshot := s.w.tables.clone()
	if err := fn(&mockTx{state: snapshot}); err != nil {
		return err
	}
	s.w.tables = snapshot
	return nil
}

// Migrate applies migrations in version order, skipping versions
// already recorded.
func (s *dataStoreService) Migrate(ctx context.Context, migrations []types.Migration) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	ordered := append([]types.Migration(nil), migrations...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Version < ordered[j].Version })

	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	for _, m := range ordered {
		if _, done := s.w.tables.applied[m.Version]; done {
			continue
		}
		if _, err := s.w.tables.execute(m.SQL, nil); err != nil {
			return errdefs.NewUnavailable("migration %d (%s) failed", m.Version, m.Name).WithCause(err)
		}
		s.w.tables.applied[m.Version] = m.Name
	}
	return nil
}

// mockTx operates on the transaction snapshot; the service holds the
// world lock for the duration of the transaction.
type mockTx struct {
	state *relationalState
}

func (t *mockTx) Query(ctx context.Context, sql string, args ...interface{}) ([]types.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, errdefs.NewTimeout("transaction aborted").WithCause(err)
	}
	return t.state.query(sql, args)
}

func (t *mockTx) Execute(ctx context.Context, sql string, args ...interface{}) (*types.ExecResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, errdefs.NewTimeout("transaction aborted").WithCause(err)
	}
	return t.state.execute(sql, args)
}

var (
	createTableRe = regexp.MustCompile(`(?is)^\s*CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?(\w+)\s*\((.+)\)\s*$`)
	dropTableRe   = regexp.MustCompile(`(?is)^\s*DROP\s+TABLE\s+(?:IF\s+EXISTS\s+)?(\w+)\s*$`)
	insertRe      = regexp.MustCompile(`(?is)^\s*INSERT\s+INTO\s+(\w+)\s*\(([^)]+)\)\s*VALUES\s*\((.+)\)\s*$`)
	selectRe      = regexp.MustCompile(`(?is)^\s*SELECT\s+(.+?)\s+FROM\s+(\w+)(?:\s+WHERE\s+(.+?))?\s*$`)
	updateRe      = regexp.MustCompile(`(?is)^\s*UPDATE\s+(\w+)\s+SET\s+(.+?)(?:\s+WHERE\s+(.+?))?\s*$`)
	deleteRe      = regexp.MustCompile(`(?is)^\s*DELETE\s+FROM\s+(\w+)(?:\s+WHERE\s+(.+?))?\s*$`)
)

func (r *relationalState) execute(sql string, args []interface{}) (*types.ExecResult, error) {
	switch {
	case createTableRe.MatchString(sql):
		m := createTableRe.FindStringSubmatch(sql)
		name := strings.ToLower(m[1])
		if _, exists := r.tables[name]; exists {
			if strings.Contains(strings.ToUpper(sql), "IF NOT EXISTS") {
				return &types.ExecResult{}, nil
			}
			return nil, errdefs.NewConflict("table %q already exists", name)
		}
		r.tables[name] = &tableState{columns: parseColumns(m[2])}
		return &types.ExecResult{}, nil

	case dropTableRe.MatchString(sql):
		m := dropTableRe.FindStringSubmatch(sql)
		name := strings.ToLower(m[1])
		if _, exists := r.tables[name]; !exists && !strings.Contains(strings.ToUpper(sql), "IF EXISTS") {
			return nil, errdefs.NewNotFound("table", name)
		}
		delete(r.tables, name)
		return &types.ExecResult{}, nil

	case insertRe.MatchString(sql):
		return r.insert(sql, args)

	case updateRe.MatchString(sql) && !selectRe.MatchString(sql):
		return r.update(sql, args)

	case deleteRe.MatchString(sql):
		return r.delete(sql, args)
	}
	return nil, errdefs.NewValidation("unsupported statement: %s", firstWords(sql))
}

func (r *relationalState) query(sql string, args []interface{}) ([]types.Row, error) {
	m := selectRe.FindStringSubmatch(sql)
	if m == nil {
		return nil, errdefs.NewValidation("unsupported query: %s", firstWords(sql))
	}
	table, ok := r.tables[strings.ToLower(m[2])]
	if !ok {
		return nil, errdefs.NewNotFound("table", strings.ToLower(m[2]))
	}
	pred, err := parsePredicate(m[3], args)
	if err != nil {
		return nil, err
	}

	cols := strings.TrimSpace(m[1])
	var selected []string
	if cols != "*" {
		for _, c := range strings.Split(cols, ",") {
			selected = append(selected, strings.ToLower(strings.TrimSpace(c)))
		}
	}

	var out []types.Row
	for _, row := range table.rows {
		if !pred(row) {
			continue
		}
		cp := make(types.Row, len(row))
		if selected == nil {
			for k, v := range row {
				cp[k] = v
			}
		} else {
			for _, c := range selected {
				cp[c] = row[c]
			}
		}
		out = append(out, cp)
	}
	return out, nil
}

func (r *relationalState) insert(sql string, args []interface{}) (*types.ExecResult, error) {
	m := insertRe.FindStringSubmatch(sql)
	name := strings.ToLower(m[1])
	table, ok := r.tables[name]
	if !ok {
		return nil, errdefs.NewNotFound("table", name)
	}

	var cols []string
	for _, c := range strings.Split(m[2], ",") {
		cols = append(cols, strings.ToLower(strings.TrimSpace(c)))
	}
	exprs := strings.Split(m[3], ",")
	if len(exprs) != len(cols) {
		return nil, errdefs.NewValidation("column/value count mismatch")
	}

	row := make(types.Row, len(cols)+1)
	for i, expr := range exprs {
		v, err := resolveExpr(strings.TrimSpace(expr), args)
		if err != nil {
			return nil, err
		}
		row[cols[i]] = v
	}

	table.autoID++
	if hasColumn(table.columns, "id") {
		if _, set := row["id"]; !set {
			row["id"] = table.autoID
		}
	}
	table.rows = append(table.rows, row)
	return &types.ExecResult{RowsAffected: 1, InsertID: table.autoID}, nil
}

func (r *relationalState) update(sql string, args []interface{}) (*types.ExecResult, error) {
	m := updateRe.FindStringSubmatch(sql)
	name := strings.ToLower(m[1])
	table, ok := r.tables[name]
	if !ok {
		return nil, errdefs.NewNotFound("table", name)
	}
	pred, err := parsePredicate(m[3], args)
	if err != nil {
		return nil, err
	}

	type assignment struct {
		col string
		val interface{}
	}
	var sets []assignment
	for _, part := range strings.Split(m[2], ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, errdefs.NewValidation("malformed SET clause")
		}
		v, err := resolveExpr(strings.TrimSpace(kv[1]), args)
		if err != nil {
			return nil, err
		}
		sets = append(sets, assignment{col: strings.ToLower(strings.TrimSpace(kv[0])), val: v})
	}

	var affected int64
	for _, row := range table.rows {
		if !pred(row) {
			continue
		}
		for _, a := range sets {
			row[a.col] = a.val
		}
		affected++
	}
	return &types.ExecResult{RowsAffected: affected}, nil
}

func (r *relationalState) delete(sql string, args []interface{}) (*types.ExecResult, error) {
	m := deleteRe.FindStringSubmatch(sql)
	name := strings.ToLower(m[1])
	table, ok := r.tables[name]
	if !ok {
		return nil, errdefs.NewNotFound("table", name)
	}
	pred, err := parsePredicate(m[2], args)
	if err != nil {
		return nil, err
	}
	var kept []types.Row
	var affected int64
	for _, row := range table.rows {
		if pred(row) {
			affected++
			continue
		}
		kept = append(kept, row)
	}
	table.rows = kept
	return &types.ExecResult{RowsAffected: affected}, nil
}

// parsePredicate understands "col = <expr>" clauses joined by AND. An
// empty clause matches every row.
func parsePredicate(clause string, args []interface{}) (func(types.Row) bool, error) {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return func(types.Row) bool { return true }, nil
	}
	type cond struct {
		col string
		val interface{}
	}
	var conds []cond
	for _, part := range regexp.MustCompile(`(?i)\s+AND\s+`).Split(clause, -1) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, errdefs.NewValidation("unsupported WHERE clause %q", part)
		}
		v, err := resolveExpr(strings.TrimSpace(kv[1]), args)
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond{col: strings.ToLower(strings.TrimSpace(kv[0])), val: v})
	}
	return func(row types.Row) bool {
		for _, c := range conds {
			if !looseEqual(row[c.col], c.val) {
				return false
			}
		}
		return true
	}, nil
}

// resolveExpr resolves a $n placeholder, quoted string, numeric
// literal, or NULL.
func resolveExpr(expr string, args []interface{}) (interface{}, error) {
	switch {
	case strings.HasPrefix(expr, "$"):
		n, err := strconv.Atoi(expr[1:])
		if err != nil || n < 1 || n > len(args) {
			return nil, errdefs.NewValidation("parameter %s out of range", expr)
		}
		return args[n-1], nil
	case len(expr) >= 2 && expr[0] == '\'' && expr[len(expr)-1] == '\'':
		return expr[1 : len(expr)-1], nil
	case strings.EqualFold(expr, "NULL"):
		return nil, nil
	case strings.EqualFold(expr, "TRUE"):
		return true, nil
	case strings.EqualFold(expr, "FALSE"):
		return false, nil
	default:
		if n, err := strconv.ParseInt(expr, 10, 64); err == nil {
			return n, nil
		}
		if f, err := strconv.ParseFloat(expr, 64); err == nil {
			return f, nil
		}
	}
	return nil, errdefs.NewValidation("unsupported expression %q", expr)
}

// looseEqual compares across the numeric types that reach the engine
// through interface{} arguments.
func looseEqual(a, b interface{}) bool {
	if a == b {
		return true
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	return aok && bok && af == bf
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// parseColumns extracts column names from a CREATE TABLE body,
// skipping table-level constraints.
func parseColumns(body string) []string {
	var cols []string
	depth := 0
	start := 0
	var defs []string
	for i, c := range body {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				defs = append(defs, body[start:i])
				start = i + 1
			}
		}
	}
	defs = append(defs, body[start:])
	for _, def := range defs {
		fields := strings.Fields(strings.TrimSpace(def))
		if len(fields) == 0 {
			continue
		}
		head := strings.ToUpper(fields[0])
		if head == "PRIMARY" || head == "FOREIGN" || head == "UNIQUE" || head == "CONSTRAINT" || head == "CHECK" {
			continue
		}
		cols = append(cols, strings.ToLower(fields[0]))
	}
	return cols
}

func hasColumn(cols []string, name string) bool {
	for _, c := range cols {
		if c == name {
			return true
		}
	}
	return false
}

func firstWords(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) > 3 {
		fields = fields[:3]
	}
	return strings.Join(fields, " ")
}
