// Package service implements the financial-truth components: the
// Transaction Engine, Credit Balance Service, HOA Dues Service, Water
// Readings Service, Water Bill Generator, Penalty Recalculator, Payment
// Distributor, and Report Aggregator. Every component reaches persistence
// exclusively through internal/store's Store port, following the
// document-tree layout fixed by spec.
package service

import "fmt"

func tenantPath(tenantID string) string {
	return fmt.Sprintf("clients/%s", tenantID)
}

func unitPath(tenantID, unitID string) string {
	return fmt.Sprintf("clients/%s/units/%s", tenantID, unitID)
}

func transactionsCollection(tenantID string) string {
	return fmt.Sprintf("clients/%s/transactions", tenantID)
}

func transactionPath(tenantID, docID string) string {
	return fmt.Sprintf("clients/%s/transactions/%s", tenantID, docID)
}

func duesPath(tenantID, unitID string, fiscalYear int) string {
	return fmt.Sprintf("clients/%s/units/%s/dues/%04d", tenantID, unitID, fiscalYear)
}

func duesCollection(tenantID, unitID string) string {
	return fmt.Sprintf("clients/%s/units/%s/dues", tenantID, unitID)
}

func creditPath(tenantID, unitID string) string {
	return fmt.Sprintf("clients/%s/units/%s/creditBalances/current", tenantID, unitID)
}

func waterReadingsPath(tenantID string, fiscalYear, fiscalMonth int) string {
	return fmt.Sprintf("clients/%s/projects/waterBills/readings/%04d-%02d", tenantID, fiscalYear, fiscalMonth)
}

func waterReadingsCollection(tenantID string) string {
	return fmt.Sprintf("clients/%s/projects/waterBills/readings", tenantID)
}

func waterBillPath(tenantID string, fiscalYear, fiscalQuarter int) string {
	return fmt.Sprintf("clients/%s/projects/waterBills/bills/%d-Q%d", tenantID, fiscalYear, fiscalQuarter)
}

func waterBillsCollection(tenantID string) string {
	return fmt.Sprintf("clients/%s/projects/waterBills/bills", tenantID)
}

func waterConfigPath(tenantID string) string {
	return fmt.Sprintf("clients/%s/projects/waterBills/config", tenantID)
}

func budgetPath(tenantID string, fiscalYear int, categoryID string) string {
	return fmt.Sprintf("clients/%s/budgets/%04d/%s", tenantID, fiscalYear, categoryID)
}

func budgetsCollection(tenantID string, fiscalYear int) string {
	return fmt.Sprintf("clients/%s/budgets/%04d", tenantID, fiscalYear)
}
