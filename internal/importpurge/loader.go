package importpurge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sandyland/sams-core/internal/ports"
)

// bundleObjectNames are the fixed file names an import run expects under
// its ImportFileStore prefix, matching the legacy exporter's own output.
var bundleObjectNames = []string{
	"Client.json", "Config.json", "PaymentMethods.json", "Categories.json",
	"Vendors.json", "Units.json", "YearEndBalances.json", "Transactions.json",
	"HOADues.json", "WaterBills.json",
}

// LoadBundle reads every fixed bundle file for tenantID's importID from fs
// under "imports/<tenantID>/<importID>/<file>.json" and decodes it into a
// Bundle. A missing optional file (anything but Client.json) decodes as
// the type's zero value.
func LoadBundle(ctx context.Context, fs ports.ImportFileStore, tenantID, importID string) (Bundle, error) {
	var b Bundle

	clientRaw, err := fs.Get(ctx, bundlePath(tenantID, importID, "Client.json"))
	if err != nil {
		return Bundle{}, fmt.Errorf("read Client.json: %w", err)
	}
	if err := json.Unmarshal(clientRaw, &b.Client); err != nil {
		return Bundle{}, fmt.Errorf("decode Client.json: %w", err)
	}

	if err := loadOptional(ctx, fs, tenantID, importID, "Config.json", &b.Config); err != nil {
		return Bundle{}, err
	}
	if err := loadOptional(ctx, fs, tenantID, importID, "PaymentMethods.json", &b.PaymentMethods); err != nil {
		return Bundle{}, err
	}
	if err := loadOptional(ctx, fs, tenantID, importID, "Categories.json", &b.Categories); err != nil {
		return Bundle{}, err
	}
	if err := loadOptional(ctx, fs, tenantID, importID, "Vendors.json", &b.Vendors); err != nil {
		return Bundle{}, err
	}
	if err := loadOptional(ctx, fs, tenantID, importID, "Units.json", &b.Units); err != nil {
		return Bundle{}, err
	}
	if err := loadOptional(ctx, fs, tenantID, importID, "YearEndBalances.json", &b.YearEndBalances); err != nil {
		return Bundle{}, err
	}
	if err := loadOptional(ctx, fs, tenantID, importID, "Transactions.json", &b.Transactions); err != nil {
		return Bundle{}, err
	}
	if err := loadOptional(ctx, fs, tenantID, importID, "HOADues.json", &b.HOADues); err != nil {
		return Bundle{}, err
	}
	if err := loadOptional(ctx, fs, tenantID, importID, "WaterBills.json", &b.WaterBills); err != nil {
		return Bundle{}, err
	}
	return b, nil
}

func loadOptional(ctx context.Context, fs ports.ImportFileStore, tenantID, importID, file string, dst interface{}) error {
	raw, err := fs.Get(ctx, bundlePath(tenantID, importID, file))
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", file, err)
	}
	return nil
}

func bundlePath(tenantID, importID, file string) string {
	return fmt.Sprintf("imports/%s/%s/%s", tenantID, importID, file)
}
