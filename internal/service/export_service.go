package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成 Excel 文件失败")

// ExportService 导出业务接口
//
//   - 评分表导出为 Excel (.xlsx)，数据与 TeacherService.GetScoringData 一致
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	ExportScoringSheet(ctx context.Context, disciplineID, teacherID, groupID int64) (*bytes.Buffer, string, error)
}

type exportService struct {
	teacher TeacherService
	logger  *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(teacher TeacherService, logger *zap.Logger) ExportService {
	return &exportService{teacher: teacher, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportScoringSheet 导出评分表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 标题行：课程名称
//   - 表头：序号 | 学生 | 各指标编号
//   - 单元格：分数，未评分为空

func (s *exportService) ExportScoringSheet(ctx context.Context, disciplineID, teacherID, groupID int64) (*bytes.Buffer, string, error) {
	data, err := s.teacher.GetScoringData(ctx, disciplineID, teacherID, groupID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "评分表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	lastCol := colName(1 + len(data.Indicators))

	f.SetColWidth(sheetName, "A", "A", 6)
	f.SetColWidth(sheetName, "B", "B", 36)
	if len(data.Indicators) > 0 {
		f.SetColWidth(sheetName, "C", lastCol, 12)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", data.DisciplineName)
	if lastCol != "B" {
		f.MergeCell(sheetName, "A1", cell(lastCol, 1))
	}
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	f.SetCellValue(sheetName, cell("A", row), "№")
	f.SetCellValue(sheetName, cell("B", row), "学生")
	for i, ind := range data.Indicators {
		f.SetCellValue(sheetName, cell(colName(2+i), row), ind.Index)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(lastCol, row), headerStyle)

	// 数据行
	for n, st := range data.Students {
		row++
		f.SetCellValue(sheetName, cell("A", row), n+1)
		f.SetCellValue(sheetName, cell("B", row), st.FullName)
		for i, score := range st.Scores {
			if score != nil {
				f.SetCellValue(sheetName, cell(colName(2+i), row), *score)
			}
		}
	}

	// 指标说明
	row += 2
	for _, ind := range data.Indicators {
		f.SetCellValue(sheetName, cell("A", row), ind.Index)
		f.SetCellValue(sheetName, cell("B", row), ind.Name)
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("评分表_%s.xlsx", data.DisciplineName)
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
