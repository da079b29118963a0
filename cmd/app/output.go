package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sidhync-maker/workshop/internal/domain"
)

func printJSON(v any) error {
	b, err := jsonMarshal(v)
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printKV(rows [][2]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	_ = w.Flush()
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func printUsers(items []domain.User) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{formatID(item.ID), item.Username, item.Role, formatTime(item.CreatedAt)})
	}
	printTable([]string{"ID", "USERNAME", "ROLE", "CREATED_AT"}, rows)
}

func printPurchases(items []domain.Purchase) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			formatID(item.ID),
			item.ItemCode,
			item.ItemName,
			strconv.Itoa(item.Qty),
			formatMoney(item.Rate),
			formatMoney(item.Total),
			formatTime(item.PurchasedAt),
		})
	}
	printTable([]string{"ID", "CODE", "NAME", "QTY", "RATE", "TOTAL", "PURCHASED_AT"}, rows)
}

func printStock(items []domain.StockItem) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{formatID(item.ID), item.ItemCode, item.ItemName, strconv.Itoa(item.Qty)})
	}
	printTable([]string{"ID", "CODE", "NAME", "QTY"}, rows)
}

func printBills(items []domain.Billing) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			formatID(item.ID),
			item.CarModel,
			orDash(item.Complaints),
			orDash(item.StartDate),
			orDash(item.EndDate),
			formatMoney(item.Labour),
			formatMoney(item.PurchaseAmt),
			formatMoney(item.Total),
			formatTime(item.BilledAt),
		})
	}
	printTable([]string{"ID", "CAR_MODEL", "COMPLAINTS", "START", "END", "LABOUR", "PARTS", "TOTAL", "BILLED_AT"}, rows)
}

func printMechanicEntries(items []domain.MechanicEntry) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{formatID(item.ID), item.Username, item.WorkDate, item.Activity, formatMoney(item.Earning)})
	}
	printTable([]string{"ID", "USERNAME", "WORK_DATE", "ACTIVITY", "EARNING"}, rows)
}

func printEarnings(items []domain.MechanicEarning) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item.Username, strconv.Itoa(item.Entries), formatMoney(item.TotalEarning)})
	}
	printTable([]string{"USERNAME", "ENTRIES", "TOTAL_EARNING"}, rows)
}

func printCarModels(items []domain.CarModel) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{formatID(item.ID), item.Model})
	}
	printTable([]string{"ID", "MODEL"}, rows)
}

func printImportReport(report domain.ImportReport) {
	fmt.Printf("batch %s: imported %d row(s), %d failed\n", report.BatchID, report.Imported, len(report.Failed))
	if len(report.Failed) == 0 {
		return
	}
	rows := make([][]string, 0, len(report.Failed))
	for _, f := range report.Failed {
		rows = append(rows, []string{strconv.Itoa(f.Line), f.Message})
	}
	printTable([]string{"LINE", "ERROR"}, rows)
}
