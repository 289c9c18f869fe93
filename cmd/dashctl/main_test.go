package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const employeesCSV = "id_empleado,empleado,nombre_sucursal,nombre_turno,nombre_estado,fecha_inicio_contrato,duracion_contrato\n" +
	"1,Ana,\"Centro, planta baja\",Mañana,Activo,2023-01-15,365\n" +
	"2,Luis,Norte,Tarde,Activo,2023-06-01,180\n" +
	"3,Carla,\"Centro, planta baja\",Tarde,Inactivo,2022-03-10,730\n"

func runCLI(t *testing.T, args ...string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empleados.csv"), []byte(employeesCSV), 0o644))
	t.Setenv("APP_DATA_DIR", dir)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_NAME", ":memory:")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CACHE_BACKEND", "memory")
	t.Setenv("STORAGE_ENDPOINT", "")

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	require.NoError(t, app.Run(append([]string{"dashctl", "--log-level", "error"}, args...)))
	return out.String()
}

func TestDashboardCommandFiltersFilePage(t *testing.T) {
	out := runCLI(t, "dashboard", "-p", "empleados", "-o", "json", "-f", "branch=Centro, planta baja")

	var d domain.Dashboard
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, "empleados", d.Page)
	assert.Equal(t, 2, d.RecordCount)
	require.NotEmpty(t, d.KPIs)
	assert.Equal(t, domain.ValueOf(2), d.KPIs[0].Value)
}

func TestAggregateCommandTable(t *testing.T) {
	out := runCLI(t, "aggregate", "-p", "empleados", "-g", "branch", "-r", "count", "--sort", "value_desc")

	assert.Contains(t, out, "BRANCH")
	assert.Contains(t, out, "Centro, planta baja")
	assert.Contains(t, out, "2.00")
}

func TestPagesCommand(t *testing.T) {
	out := runCLI(t, "pages")
	assert.Contains(t, out, "ventas")
	assert.Contains(t, out, "empleados")
}
