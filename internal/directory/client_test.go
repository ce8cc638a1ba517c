package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/timecard/internal/timesheet"
)

func newDirectoryServer(t *testing.T, wantAuth string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("GET /equipment/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != wantAuth {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		switch r.PathValue("id") {
		case "42":
			w.Write([]byte(`{"equipment_id": 42, "equipment_name": "Excavator CAT 320",
				"plate_serial_no": "KSA-1234", "company_supplier": "Al Noor Rentals", "chassis_no": "CH-998"}`))
		case "EQ-7":
			w.Write([]byte(`{"equipment_id": "EQ-7", "equipment_name": "Loader", "plate_serial_no": "KSA-7",
				"company_supplier": null}`))
		case "broken":
			http.Error(w, "database unavailable", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	})

	mux.HandleFunc("GET /drivers/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "7" {
			http.NotFound(w, r)
			return
		}

		w.Write([]byte(`{"driver_id": 7, "driver_name": "Imran Khan", "eqama_number": "2456789012",
			"phone_number": "+966500000000"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func TestClient_Equipment(t *testing.T) {
	srv := newDirectoryServer(t, "Bearer secret")
	c := NewClient(context.Background(), srv.URL+"/", "secret", 2*time.Second)

	tests := []struct {
		name    string
		id      string
		want    *timesheet.Equipment
		wantErr error
	}{
		{
			name: "Numeric id",
			id:   "42",
			want: &timesheet.Equipment{
				ID:              "42",
				Name:            "Excavator CAT 320",
				PlateSerialNo:   "KSA-1234",
				CompanySupplier: new("Al Noor Rentals"),
				ChassisNo:       new("CH-998"),
			},
		},
		{
			name: "String id without supplier",
			id:   "EQ-7",
			want: &timesheet.Equipment{ID: "EQ-7", Name: "Loader", PlateSerialNo: "KSA-7"},
		},
		{
			name:    "Unknown",
			id:      "404",
			wantErr: timesheet.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Equipment(context.Background(), tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_EquipmentServerError(t *testing.T) {
	srv := newDirectoryServer(t, "Bearer secret")
	c := NewClient(context.Background(), srv.URL, "secret", 2*time.Second)

	_, err := c.Equipment(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, timesheet.ErrNotFound)
	assert.Contains(t, err.Error(), "status 500")
}

func TestClient_NoToken(t *testing.T) {
	srv := newDirectoryServer(t, "")
	c := NewClient(context.Background(), srv.URL, "", 2*time.Second)

	got, err := c.Equipment(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "42", got.ID)
}

func TestClient_Driver(t *testing.T) {
	srv := newDirectoryServer(t, "")
	c := NewClient(context.Background(), srv.URL, "", 2*time.Second)

	got, err := c.Driver(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, &timesheet.Driver{
		ID:          "7",
		Name:        "Imran Khan",
		EqamaNumber: "2456789012",
		PhoneNumber: "+966500000000",
	}, got)

	_, err = c.Driver(context.Background(), "8")
	assert.ErrorIs(t, err, timesheet.ErrNotFound)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c := NewClient(context.Background(), srv.URL, "", 50*time.Millisecond)

	_, err := c.Driver(context.Background(), "7")
	require.Error(t, err)
	assert.NotErrorIs(t, err, timesheet.ErrNotFound)
}
