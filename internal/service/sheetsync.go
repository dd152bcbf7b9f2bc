package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"wallmotion-backend/internal/model"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetSyncService 把购买记录镜像到运营用的 Google Sheet，
// 表格只是镜像，绝不反向写回数据库
type SheetSyncService struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
}

func NewSheetSyncService(enableSync bool, credentialPath, spreadsheetID, sheetName string) (*SheetSyncService, error) {
	if !enableSync {
		return nil, nil
	}

	ctx := context.Background()

	// 读取凭证文件
	b, err := os.ReadFile(credentialPath)
	if err != nil {
		return nil, err
	}

	// 使用服务账号授权
	creds, err := google.CredentialsFromJSON(ctx, b, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("无法加载凭证: %v", err)
	}

	srv, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, err
	}

	return &SheetSyncService{
		service:       srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func (s *SheetSyncService) rowValues(user *model.User) []interface{} {
	purchaseDate := ""
	if user.PurchaseDate != nil {
		purchaseDate = user.PurchaseDate.Format(time.RFC3339)
	}
	return []interface{}{
		user.Email,
		user.CognitoID,
		string(user.LicenseType),
		user.LicensesCount,
		purchaseDate,
		user.StripeCustomerID,
		user.UpdatedAt.Format(time.RFC3339),
	}
}

// SyncUser 按邮箱更新或追加一行购买记录
func (s *SheetSyncService) SyncUser(user *model.User) error {
	if s == nil {
		return nil
	}

	// 先在 Sheet 中查找该邮箱
	rangeToSearch := fmt.Sprintf("%s!A2:A", s.sheetName)
	keyResp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, rangeToSearch).Do()
	if err != nil {
		log.Printf("查询Sheet数据失败: %v", err)
		return fmt.Errorf("查询Sheet数据失败: %v", err)
	}

	var rowIndex int
	found := false
	for i, row := range keyResp.Values {
		if len(row) > 0 && row[0] == user.Email {
			found = true
			rowIndex = i + 2 // +2因为A2开始且数组从0开始
			break
		}
	}

	values := [][]interface{}{s.rowValues(user)}

	// 根据是否找到决定更新还是追加
	if found {
		rangeData := fmt.Sprintf("%s!A%d:G%d", s.sheetName, rowIndex, rowIndex)
		_, err = s.service.Spreadsheets.Values.Update(
			s.spreadsheetID,
			rangeData,
			&sheets.ValueRange{Values: values},
		).ValueInputOption("USER_ENTERED").Do()
	} else {
		_, err = s.service.Spreadsheets.Values.Append(
			s.spreadsheetID,
			s.sheetName+"!A2:G",
			&sheets.ValueRange{Values: values},
		).ValueInputOption("USER_ENTERED").Do()
	}

	if err != nil {
		log.Printf("同步到Google Sheet失败: %v", err)
		return fmt.Errorf("同步到Google Sheet失败: %v", err)
	}

	log.Printf("成功同步用户 %s 到Google Sheet", user.Email)
	return nil
}

// BatchSyncUsers 批量追加，供运营后台全量重建表格
func (s *SheetSyncService) BatchSyncUsers(users []model.User) error {
	if s == nil {
		return nil
	}

	var values [][]interface{}
	for i := range users {
		values = append(values, s.rowValues(&users[i]))
	}

	rangeData := s.sheetName + "!A2:G"
	valueRange := &sheets.ValueRange{
		Values: values,
	}

	_, err := s.service.Spreadsheets.Values.Append(
		s.spreadsheetID,
		rangeData,
		valueRange,
	).ValueInputOption("USER_ENTERED").Do()

	if err != nil {
		log.Printf("Failed to batch sync users: %v", err)
		return err
	}

	return nil
}
