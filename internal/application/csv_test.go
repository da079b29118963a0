package application_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sidhync-maker/workshop/internal/application"
	"github.com/sidhync-maker/workshop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportPurchasesCollectsRowErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	input := strings.Join([]string{
		"rate,qty,item_name,item_code,supplier",
		"250,4,Brake pad,BRK01,Acme",
		"240,6,Brake pad,BRK01,Acme",
		"abc,1,Oil,OIL5,Acme",
		"10,0,Oil,OIL5,Acme",
		"10,2,,OIL5,Acme",
		"0,3,Sample,FREE,",
	}, "\n")

	report, err := svc.ImportPurchases(ctx, strings.NewReader(input))
	require.NoError(t, err)

	_, err = uuid.Parse(report.BatchID)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Imported)
	require.Len(t, report.Failed, 3)
	assert.Equal(t, 4, report.Failed[0].Line)
	assert.Equal(t, 5, report.Failed[1].Line)
	assert.Equal(t, 6, report.Failed[2].Line)
	assert.Contains(t, report.Failed[1].Message, "qty")

	stock, err := svc.ListStock(ctx)
	require.NoError(t, err)
	require.Len(t, stock, 2)
	assert.Equal(t, "BRK01", stock[0].ItemCode)
	assert.Equal(t, 10, stock[0].Qty)
	assert.Equal(t, "FREE", stock[1].ItemCode)
}

func TestImportPurchasesMissingHeaderFailsWholeImport(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.ImportPurchases(ctx, strings.NewReader("item_code,item_name,qty\nBRK01,Brake pad,4\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "rate")

	purchases, err := svc.ListPurchases(ctx)
	require.NoError(t, err)
	assert.Empty(t, purchases)

	_, err = svc.ImportPurchases(ctx, strings.NewReader(""))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestExportCSVHasHeaderAndRows(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.AddPurchase(ctx, "BRK01", "Brake pad, front", 4, 250)
	require.NoError(t, err)
	_, err = svc.AddCarModel(ctx, "Sedan X")
	require.NoError(t, err)

	data, err := svc.ExportCSV(ctx, application.DatasetPurchases)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"id", "item_code", "item_name", "qty", "rate", "total", "purchased_at"}, records[0])
	assert.Equal(t, "Brake pad, front", records[1][2])
	assert.Equal(t, "1000", records[1][5])

	data, err = svc.ExportCSV(ctx, application.DatasetStock)
	require.NoError(t, err)
	assert.Equal(t, "id,item_code,item_name,qty\n1,BRK01,\"Brake pad, front\",4\n", string(data))

	data, err = svc.ExportCSV(ctx, application.DatasetCarModels)
	require.NoError(t, err)
	assert.Equal(t, "id,model\n1,Sedan X\n", string(data))

	for _, ds := range application.Datasets {
		_, err := svc.ExportCSV(ctx, ds)
		require.NoError(t, err, ds)
	}

	_, err = svc.ExportCSV(ctx, "users")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExportThenImportPurchasesRoundTrip(t *testing.T) {
	ctx := context.Background()
	src, _ := newTestService(t)
	dst, _ := newTestService(t)

	_, err := src.AddPurchase(ctx, "BRK01", "Brake pad", 4, 250)
	require.NoError(t, err)
	_, err = src.AddPurchase(ctx, "OIL5", "Oil", 2, 12.5)
	require.NoError(t, err)

	data, err := src.ExportCSV(ctx, application.DatasetPurchases)
	require.NoError(t, err)

	report, err := dst.ImportPurchases(ctx, bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Empty(t, report.Failed)

	stock, err := dst.ListStock(ctx)
	require.NoError(t, err)
	assert.Len(t, stock, 2)
}
