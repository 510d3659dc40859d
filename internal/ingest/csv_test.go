package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradewise-tools/originate/internal/model"
)

func TestParser_ParseFile(t *testing.T) {
	tests := []struct {
		name     string
		csv      string
		wantRows int
		wantErr  bool
		check    func(t *testing.T, rows []model.RawRow)
	}{
		{
			name: "canonical headers",
			csv: "material_name,hs_code,country_of_origin,cost_per_pair,manufacturer\n" +
				"Leather upper,6406.10,CN,12.50,Golden Step Co\n" +
				"Rubber sole,,VN,3.80,\n",
			wantRows: 2,
			check: func(t *testing.T, rows []model.RawRow) {
				assert.Equal(t, "Leather upper", rows[0][model.FieldDescription])
				assert.Equal(t, "6406.10", rows[0][model.FieldHSCode])
				assert.Equal(t, "CN", rows[0][model.FieldOriginCountry])
				assert.Equal(t, "12.50", rows[0][model.FieldCost])
				assert.Equal(t, "Golden Step Co", rows[0][model.FieldManufacturer])
			},
		},
		{
			name: "synonym headers with mixed case and spaces",
			csv: "Description,Tariff Code,Origin,Unit Cost\n" +
				"Insole,640610,KR,1.10\n",
			wantRows: 1,
			check: func(t *testing.T, rows []model.RawRow) {
				assert.Equal(t, "Insole", rows[0][model.FieldDescription])
				assert.Equal(t, "640610", rows[0][model.FieldHSCode])
				assert.Equal(t, "KR", rows[0][model.FieldOriginCountry])
				assert.Equal(t, "1.10", rows[0][model.FieldCost])
			},
		},
		{
			name: "slash and dash separators in headers",
			csv: "Material/Name,Country-of-Origin,Cost\n" +
				"Thread,VN,0.20\n",
			wantRows: 1,
			check: func(t *testing.T, rows []model.RawRow) {
				assert.Equal(t, "VN", rows[0][model.FieldOriginCountry])
			},
		},
		{
			name: "blank rows are dropped",
			csv: "description,cost\n" +
				"Upper,10.00\n" +
				",\n" +
				"Sole,5.00\n",
			wantRows: 2,
		},
		{
			name:    "no recognizable columns",
			csv:     "foo,bar\n1,2\n",
			wantErr: true,
		},
		{
			name:    "empty file",
			csv:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := NewParser().ParseFile(context.Background(), strings.NewReader(tt.csv))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, rows, tt.wantRows)
			if tt.check != nil {
				tt.check(t, rows)
			}
		})
	}
}

func TestProductHSCode(t *testing.T) {
	t.Run("explicit product column wins", func(t *testing.T) {
		rows := []model.RawRow{
			{model.FieldHSCode: "6406.10"},
			{model.FieldProductHSCode: "6403", model.FieldHSCode: "5208"},
		}
		assert.Equal(t, "6403", ProductHSCode(rows))
	})

	t.Run("falls back to first material hs code", func(t *testing.T) {
		rows := []model.RawRow{
			{model.FieldDescription: "Upper"},
			{model.FieldHSCode: "6406.10"},
			{model.FieldHSCode: "5208"},
		}
		assert.Equal(t, "6406.10", ProductHSCode(rows))
	})

	t.Run("no code anywhere", func(t *testing.T) {
		assert.Equal(t, "", ProductHSCode([]model.RawRow{{model.FieldDescription: "Upper"}}))
	})
}

func TestManufacturer(t *testing.T) {
	rows := []model.RawRow{
		{model.FieldDescription: "Upper"},
		{model.FieldManufacturer: "Hanoi Footwear"},
		{model.FieldManufacturer: "Second Co"},
	}
	assert.Equal(t, "Hanoi Footwear", Manufacturer(rows))
}
