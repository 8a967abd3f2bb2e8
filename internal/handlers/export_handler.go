package handlers

import (
	"fmt"
	"net/http"
	"time"

	"edupoint-crm/config"
	"edupoint-crm/models"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportRegisterHandler streams the income/expense register as an xlsx
// workbook with one sheet per side of the ledger.
func ExportRegisterHandler(c *gin.Context) {
	incomeQuery := config.DB.Preload("AddedBy").Order("date ASC")
	expenseQuery := config.DB.Preload("AddedBy").Order("date ASC")
	if from, err := parseDate(c.Query("from")); err == nil {
		incomeQuery = incomeQuery.Where("date >= ?", from)
		expenseQuery = expenseQuery.Where("date >= ?", from)
	}
	if to, err := parseDate(c.Query("to")); err == nil {
		incomeQuery = incomeQuery.Where("date <= ?", endOfDay(to))
		expenseQuery = expenseQuery.Where("date <= ?", endOfDay(to))
	}

	var incomes []models.Income
	var expenses []models.Expense
	if err := incomeQuery.Find(&incomes).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to fetch incomes")
		return
	}
	if err := expenseQuery.Find(&expenses).Error; err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to fetch expenses")
		return
	}

	f := excelize.NewFile()

	incomeSheet := "Income"
	index, _ := f.NewSheet(incomeSheet)
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	incomeHeaders := []string{"Date", "Source", "Amount", "Type", "Added By", "Note"}
	for i, header := range incomeHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(incomeSheet, cell, header)
	}
	for i, row := range incomes {
		r := i + 2
		f.SetCellValue(incomeSheet, fmt.Sprintf("A%d", r), row.Date.Format("2006-01-02"))
		f.SetCellValue(incomeSheet, fmt.Sprintf("B%d", r), row.Source)
		f.SetCellValue(incomeSheet, fmt.Sprintf("C%d", r), row.Amount)
		f.SetCellValue(incomeSheet, fmt.Sprintf("D%d", r), row.RefType)
		if row.AddedBy != nil {
			f.SetCellValue(incomeSheet, fmt.Sprintf("E%d", r), row.AddedBy.Name)
		}
		f.SetCellValue(incomeSheet, fmt.Sprintf("F%d", r), row.Note)
	}

	expenseSheet := "Expense"
	f.NewSheet(expenseSheet)
	expenseHeaders := []string{"Date", "Purpose", "Amount", "Added By", "Note"}
	for i, header := range expenseHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(expenseSheet, cell, header)
	}
	for i, row := range expenses {
		r := i + 2
		f.SetCellValue(expenseSheet, fmt.Sprintf("A%d", r), row.Date.Format("2006-01-02"))
		f.SetCellValue(expenseSheet, fmt.Sprintf("B%d", r), row.Purpose)
		f.SetCellValue(expenseSheet, fmt.Sprintf("C%d", r), row.Amount)
		if row.AddedBy != nil {
			f.SetCellValue(expenseSheet, fmt.Sprintf("D%d", r), row.AddedBy.Name)
		}
		f.SetCellValue(expenseSheet, fmt.Sprintf("E%d", r), row.Note)
	}

	fileName := fmt.Sprintf("register_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	if err := f.Write(c.Writer); err != nil {
		fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to write Excel file")
	}
}
