package product

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/storehub/storehub-backend/pkg/database"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type ImportHandler struct {
	db *gorm.DB
}

func NewImportHandler(db *gorm.DB) *ImportHandler {
	return &ImportHandler{db: db}
}

type ImportResult struct {
	TotalRows    int      `json:"total_rows"`
	SuccessCount int      `json:"success_count"`
	FailedCount  int      `json:"failed_count"`
	Errors       []string `json:"errors"`
}

type importRow struct {
	Name     string
	Category string
	Brand    string
	Price    float64
	Stock    int
}

// Import handles Excel/CSV file upload for bulk product import. Existing
// products are matched by name and updated; unknown categories and brands are
// created on the fly.
func (h *ImportHandler) Import(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	var rows []importRow
	fileName := strings.ToLower(header.Filename)

	if strings.HasSuffix(fileName, ".xlsx") || strings.HasSuffix(fileName, ".xls") {
		rows, err = parseExcel(file)
	} else if strings.HasSuffix(fileName, ".csv") {
		rows, err = parseCSV(file)
	} else {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported file format. Please upload .xlsx or .csv"})
		return
	}

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Failed to parse file: %v", err)})
		return
	}

	result := ImportResult{
		TotalRows: len(rows),
		Errors:    []string{},
	}

	for i, row := range rows {
		if row.Name == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Product name is required", i+2))
			result.FailedCount++
			continue
		}
		if row.Category == "" || row.Brand == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Category and brand are required", i+2))
			result.FailedCount++
			continue
		}

		category, err := h.findOrCreateCategory(row.Category)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Failed to resolve category %s", i+2, row.Category))
			result.FailedCount++
			continue
		}
		brand, err := h.findOrCreateBrand(row.Brand)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Failed to resolve brand %s", i+2, row.Brand))
			result.FailedCount++
			continue
		}

		var existing database.Product
		if err := h.db.Where("name = ?", row.Name).First(&existing).Error; err == nil {
			updates := map[string]interface{}{
				"stock_quantity": row.Stock,
				"category_id":    category.ID,
				"brand_id":       brand.ID,
			}
			if row.Price > 0 {
				updates["price"] = row.Price
			}
			if err := h.db.Model(&existing).Updates(updates).Error; err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Failed to update %s - %v", i+2, row.Name, err))
				result.FailedCount++
				continue
			}
			result.SuccessCount++
			continue
		}

		newProduct := database.Product{
			Name:          row.Name,
			Price:         row.Price,
			StockQuantity: row.Stock,
			CategoryID:    category.ID,
			BrandID:       brand.ID,
			IsActive:      true,
		}
		if err := h.db.Create(&newProduct).Error; err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Failed to create %s - %v", i+2, row.Name, err))
			result.FailedCount++
			continue
		}
		result.SuccessCount++
	}

	c.JSON(http.StatusOK, gin.H{
		"data":    result,
		"message": fmt.Sprintf("Import completed: %d success, %d failed", result.SuccessCount, result.FailedCount),
	})
}

func (h *ImportHandler) findOrCreateCategory(name string) (*database.Category, error) {
	var category database.Category
	if err := h.db.Where("name = ?", name).First(&category).Error; err == nil {
		return &category, nil
	}
	category = database.Category{Name: name, IsActive: true}
	if err := h.db.Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (h *ImportHandler) findOrCreateBrand(name string) (*database.Brand, error) {
	var brand database.Brand
	if err := h.db.Where("name = ?", name).First(&brand).Error; err == nil {
		return &brand, nil
	}
	brand = database.Brand{Name: name, IsActive: true}
	if err := h.db.Create(&brand).Error; err != nil {
		return nil, err
	}
	return &brand, nil
}

var importColumns = map[string][]string{
	"name":     {"name", "product name", "product"},
	"category": {"category"},
	"brand":    {"brand"},
	"price":    {"price", "selling price"},
	"stock":    {"stock", "qty", "quantity", "stock qty"},
}

func mapRow(colMap map[string]int, row []string) importRow {
	value := func(field string) string {
		for _, col := range importColumns[field] {
			if idx, ok := colMap[col]; ok && idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
		}
		return ""
	}

	var out importRow
	out.Name = value("name")
	out.Category = value("category")
	out.Brand = value("brand")
	if v, err := strconv.ParseFloat(value("price"), 64); err == nil {
		out.Price = v
	}
	if v, err := strconv.Atoi(value("stock")); err == nil {
		out.Stock = v
	}
	return out
}

func headerMap(header []string) map[string]int {
	colMap := make(map[string]int)
	for i, cell := range header {
		colMap[strings.ToLower(strings.TrimSpace(cell))] = i
	}
	return colMap
}

func parseExcel(file io.Reader) ([]importRow, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in file")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("file must have header row and at least one data row")
	}

	colMap := headerMap(rows[0])

	var result []importRow
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		if parsed := mapRow(colMap, row); parsed.Name != "" {
			result = append(result, parsed)
		}
	}
	return result, nil
}

func parseCSV(file io.Reader) ([]importRow, error) {
	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("file must have header row and at least one data row")
	}

	colMap := headerMap(records[0])

	var result []importRow
	for _, row := range records[1:] {
		if len(row) == 0 {
			continue
		}
		if parsed := mapRow(colMap, row); parsed.Name != "" {
			result = append(result, parsed)
		}
	}
	return result, nil
}

// DownloadTemplate generates a sample Excel template for import
func (h *ImportHandler) DownloadTemplate(c *gin.Context) {
	f := excelize.NewFile()
	defer f.Close()

	headers := []string{"Name", "Category", "Brand", "Price", "Stock"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue("Sheet1", cell, header)
	}

	sampleData := [][]interface{}{
		{"Wireless Mouse", "Electronics", "Logitech", 29.99, 100},
		{"Mechanical Keyboard", "Electronics", "Keychron", 89.99, 50},
		{"USB-C Cable", "Accessories", "Anker", 12.99, 200},
	}

	for rowIdx, row := range sampleData {
		for colIdx, value := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue("Sheet1", cell, value)
		}
	}

	f.SetColWidth("Sheet1", "A", "C", 20)
	f.SetColWidth("Sheet1", "D", "E", 12)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=product_import_template.xlsx")

	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate template"})
	}
}
