package integration

import (
	"net/http"
	"testing"

	"github.com/printology/storefront/pkg/catalog"
)

func TestCatalogEndpoints(t *testing.T) {
	var services struct {
		Object string            `json:"object"`
		Data   []catalog.Service `json:"data"`
	}
	decodeJSON(t, getURL(t, testEnv.BaseURL()+"/v1/services"), &services)
	if services.Object != "list" || len(services.Data) == 0 {
		t.Fatalf("services = %+v", services)
	}

	resp := getURL(t, testEnv.BaseURL()+"/v1/services/"+services.Data[0].ID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("service lookup: %d", resp.StatusCode)
	}
	var svc catalog.Service
	decodeJSON(t, resp, &svc)
	if svc.ID != services.Data[0].ID {
		t.Errorf("service id = %q", svc.ID)
	}

	var biz catalog.Business
	decodeJSON(t, getURL(t, testEnv.BaseURL()+"/v1/business"), &biz)
	if biz.Name == "" || biz.Phone == "" {
		t.Errorf("business = %+v", biz)
	}

	var promos struct {
		Data []catalog.Promotion `json:"data"`
	}
	decodeJSON(t, getURL(t, testEnv.BaseURL()+"/v1/promotions"), &promos)
	if len(promos.Data) == 0 {
		t.Error("no promotions")
	}
}
