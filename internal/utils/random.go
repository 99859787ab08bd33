package utils

import (
	"fmt"
	"math/rand"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "芳", "敏", "静", "丽", "娟", "艳", "明", "霞", "玲",
	"华", "平", "梅", "玉", "丹", "凤", "宁", "欣", "婷", "雪",
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

var digits = "0123456789"

// GenerateUsernameFromChineseName 取每个字拼音的前若干个字母，再加上 1~3 位数字
func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, py := range pinyinArray {
		length := rand.Intn(len(py)) + 1
		username += py[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

// GenerateRandomStaffUser 生成一个普通员工账户，所有账户使用同一个初始密码
func GenerateRandomStaffUser(password string, emailDomainName string) (*domain.User, error) {
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
		Role:         domain.RoleStaff,
	}

	return user, nil
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	randomPassword := make([]rune, length)
	for i := range randomPassword {
		randomPassword[i] = letters[rand.Intn(len(letters))]
	}
	return string(randomPassword)
}

var customerFirstNames = []string{
	"Μαρία", "Ελένη", "Αννα", "Σοφία", "Κατερίνα", "Γεωργία", "Δέσποινα", "Ιωάννα", "Βασιλική", "Χριστίνα",
}
var customerLastNames = []string{
	"Παπαδοπούλου", "Νικολάου", "Γεωργίου", "Κωνσταντίνου", "Δημητρίου", "Ιωάννου", "Παππά", "Οικονόμου",
}
var customerPreferences = []string{
	"", "", "Προτιμά ροζ χρώματα", "Ευαίσθητη επιδερμίδα", "Αγαπά τα γαλλικά νύχια", "Προτιμά κοντό μήκος",
}

// GenerateRandomPhone 生成希腊手机号格式的号码，例如 6912345678
func GenerateRandomPhone() string {
	phone := "69"
	for i := 0; i < 8; i++ {
		phone += string(digits[rand.Intn(len(digits))])
	}
	return phone
}

func GenerateRandomCustomer() *domain.Customer {
	phone := GenerateRandomPhone()
	return &domain.Customer{
		Name:        customerFirstNames[rand.Intn(len(customerFirstNames))] + " " + customerLastNames[rand.Intn(len(customerLastNames))],
		Phone:       phone,
		Email:       fmt.Sprintf("customer%s@example.com", phone[len(phone)-4:]),
		Preferences: customerPreferences[rand.Intn(len(customerPreferences))],
	}
}

// PickRandomServiceIDs 从 services 中随机选出 1~max 个不重复的服务
func PickRandomServiceIDs(services []*domain.Service, max int) []int64 {
	if len(services) == 0 || max <= 0 {
		return nil
	}

	perm := rand.Perm(len(services))
	n := rand.Intn(min(max, len(services))) + 1
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = services[perm[i]].ID
	}
	return ids
}
