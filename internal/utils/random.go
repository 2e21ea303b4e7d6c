package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var roles = []domain.Role{
	domain.RoleEmployee,
	domain.RoleManager,
	domain.RoleAdmin,
}

func GenerateRandomRole() domain.Role {
	return roles[rand.Intn(len(roles))]
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         GenerateRandomRole(),
	}

	return user, nil
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

var shiftTitles = []string{"前台值班", "机房巡检", "咨询台值班", "设备维护", "晚间值班"}

// GenerateRandomShift 随机生成一个未来 daysAhead 天内的班次，偶尔生成跨夜班
func GenerateRandomShift(daysAhead int, createdBy int64) *domain.Shift {
	date := time.Now().AddDate(0, 0, rand.Intn(daysAhead)+1).Truncate(24 * time.Hour)

	startHour := rand.Intn(24)
	duration := rand.Intn(8) + 1
	endHour := (startHour + duration) % 24

	deadline := date.Add(-24 * time.Hour)

	return &domain.Shift{
		Title:            shiftTitles[rand.Intn(len(shiftTitles))],
		Date:             date,
		StartTime:        fmt.Sprintf("%02d:00", startHour),
		EndTime:          fmt.Sprintf("%02d:00", endHour),
		AssignedUsers:    []domain.Assignment{},
		ApprovalDeadline: &deadline,
		CreatedBy:        createdBy,
	}
}

var absenceTypes = []domain.AbsenceType{
	domain.AbsenceTypeVacation,
	domain.AbsenceTypeSickLeave,
	domain.AbsenceTypeDayOff,
}

var absenceStatuses = []domain.AbsenceStatus{
	domain.AbsenceStatusPending,
	domain.AbsenceStatusApproved,
	domain.AbsenceStatusRejected,
}

func GenerateRandomAbsence(userID int64) *domain.Absence {
	start := time.Now().AddDate(0, 0, rand.Intn(14)+1).Truncate(24 * time.Hour)
	end := start.AddDate(0, 0, rand.Intn(5))

	return &domain.Absence{
		UserID:    userID,
		StartDate: start,
		EndDate:   end,
		Type:      absenceTypes[rand.Intn(len(absenceTypes))],
		Status:    absenceStatuses[rand.Intn(len(absenceStatuses))],
	}
}

func GenerateRandomAvailability(userID int64) *domain.Availability {
	startHour := rand.Intn(16)
	endHour := startHour + rand.Intn(8) + 1

	return &domain.Availability{
		UserID:    userID,
		WeekDay:   int32(rand.Intn(7)),
		StartTime: fmt.Sprintf("%02d:00", startHour),
		EndTime:   fmt.Sprintf("%02d:00", endHour),
		Recurring: rand.Intn(2) == 0,
	}
}
