package utils

import (
	"crypto/rand"
	"fmt"
	mathrand "math/rand"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// 字符集常量
const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// 全局原子计数器，用于确保生成的编号唯一
var codeCounter int64

// GenerateRandomCode 生成指定长度的随机字符码
func GenerateRandomCode(length int) string {
	code := make([]byte, length)

	// 使用安全的随机数生成
	_, err := rand.Read(code)
	if err != nil {
		// 如果安全随机数生成失败，回退到不安全的方法
		// 创建一个新的随机数生成器实例，而不是使用全局的Seed
		r := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))
		for i := range code {
			code[i] = charset[r.Intn(len(charset))]
		}
		return string(code)
	}

	// 将随机字节映射到字符集
	for i := range code {
		code[i] = charset[int(code[i])%len(charset)]
	}

	return string(code)
}

// GenerateCardID 生成会员卡号
// 卡号 = 门店编码 + "-" + 四位零填充序列号，例如 "SLN1-0042"
// 序列号由调用方在事务内从门店记录上递增取得，保证唯一
// 门店未配置编码时使用 "BR" 加门店ID作为前缀
func GenerateCardID(branchCode string, branchID uint, seq int) string {
	prefix := strings.ToUpper(strings.TrimSpace(branchCode))
	if prefix == "" {
		prefix = fmt.Sprintf("BR%d", branchID)
	}
	return fmt.Sprintf("%s-%04d", prefix, seq)
}

// GenerateSettlementNo 生成结算单号
// 使用原子计数器和随机后缀确保唯一性
func GenerateSettlementNo() string {
	counter := atomic.AddInt64(&codeCounter, 1)
	randomPart := GenerateRandomCode(4)
	return "STL" + strconv.FormatInt(time.Now().UnixNano(), 36) + strconv.FormatInt(counter, 36) + randomPart
}
