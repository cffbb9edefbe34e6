package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/fieo/orgregistry/modules/registry/domain/schema"
)

func TestParseCSV_StripsBOMFromFirstHeaderCell(t *testing.T) {
	in := "\xEF\xBB\xBFOffice , City\nHQ,Delhi\n"

	tbl, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, []string{"office", "city"}, tbl.Header)
	require.Len(t, tbl.Records, 1)
	require.Equal(t, 2, tbl.Records[0].Line)
	require.Equal(t, []string{"HQ", "Delhi"}, tbl.Records[0].Cells)
}

func TestParseCSV_FallsBackToSemicolon(t *testing.T) {
	in := "department;office_id;is_active\nOps;1;yes\nSales, North;2;no\n"

	tbl, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, ';', tbl.Delimiter)
	require.Equal(t, []string{"department", "office_id", "is_active"}, tbl.Header)
	require.Len(t, tbl.Records, 2)
	require.Equal(t, "Sales, North", tbl.Records[1].Cells[0])
}

func TestParseCSV_KeepsCommaWhenHeaderHasSeveralCells(t *testing.T) {
	in := "department,notes\nOps,a;b\n"

	tbl, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, ',', tbl.Delimiter)
	require.Equal(t, "a;b", tbl.Records[0].Cells[1])
}

func TestParseCSV_SkipsBlankLinesAndKeepsLineNumbers(t *testing.T) {
	in := "office\nHQ\n\n , \nBranch\n"

	tbl, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, tbl.Records, 2)
	require.Equal(t, 2, tbl.Records[0].Line)
	require.Equal(t, 5, tbl.Records[1].Line)
}

func TestParseCSV_EmptyInput(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	require.ErrorIs(t, err, ErrNoHeader)
}

func TestResolve_AliasesAreInterchangeable(t *testing.T) {
	def := schema.MustLookup(schema.KindDepartment)

	byDept, err := Resolve(def, NormalizeHeader([]string{"Dept", "office_id"}))
	require.NoError(t, err)
	byDepartment, err := Resolve(def, NormalizeHeader([]string{"department", "office_id"}))
	require.NoError(t, err)

	rec := Record{Line: 2, Cells: []string{" Ops ", "1"}}
	require.Equal(t, "Ops", byDept.Get(rec, "department"))
	require.Equal(t, byDepartment.Get(rec, "department"), byDept.Get(rec, "department"))
	require.Equal(t, "1", byDept.Get(rec, "office"))
	require.False(t, byDept.Has("parent"))
	require.Equal(t, "", byDept.Get(rec, "parent"))
}

func TestResolve_FirstAliasWins(t *testing.T) {
	def := schema.MustLookup(schema.KindOffice)

	m, err := Resolve(def, []string{"location", "name"})
	require.NoError(t, err)
	require.Equal(t, 1, m.Index("office"))
}

func TestResolve_ReportsMissingRequiredColumns(t *testing.T) {
	def := schema.MustLookup(schema.KindEmployee)

	_, err := Resolve(def, []string{"emp_id", "user_id", "designation", "department", "office"})
	var missing *MissingColumnsError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, []string{"email", "is_active"}, missing.Missing)
	require.Equal(t, schema.KindEmployee, missing.Kind)
}

func TestResolve_MinCellsCoversRequiredColumnsOnly(t *testing.T) {
	def := schema.MustLookup(schema.KindOffice)

	m, err := Resolve(def, []string{"city", "office", "latitude", "longitude"})
	require.NoError(t, err)
	require.Equal(t, 2, m.MinCells())
}

func TestOpen_ReadsFirstWorksheetOfWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "designations.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Title", "Seniority"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Manager", 3}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Clerk", 9}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, []string{"title", "seniority"}, tbl.Header)
	require.Len(t, tbl.Records, 2)
	require.Equal(t, []string{"Manager", "3"}, tbl.Records[0].Cells)
	require.Equal(t, 3, tbl.Records[1].Line)
}

func TestLocate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "offices.xlsx"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.csv"), []byte("email\n"), 0o644))

	p, ok := Locate(dir, "", schema.KindOffice)
	require.True(t, ok)
	require.Equal(t, filepath.Join(dir, "offices.xlsx"), p)

	p, ok = Locate(dir, "", schema.KindUser)
	require.True(t, ok)
	require.Equal(t, filepath.Join(dir, "users.csv"), p)

	_, ok = Locate(dir, "", schema.KindEmployee)
	require.False(t, ok)

	_, ok = Locate(dir, filepath.Join(dir, "nope.csv"), schema.KindEmployee)
	require.False(t, ok)
}
