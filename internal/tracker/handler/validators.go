package handler

import (
	"reflect"
	"strings"
	"sync"

	"github.com/Anshu331/harness-portal/internal/tracker/entity"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	tagVerdict  = "verdict"
	tagLocation = "location"
	tagRole     = "role"
)

var registerOnce sync.Once

// RegisterValidators 注册自定义校验标签，可重复调用
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		_ = v.RegisterValidation(tagVerdict, func(fl validator.FieldLevel) bool {
			return entity.IsValidVerdict(fl.Field().String())
		})
		_ = v.RegisterValidation(tagLocation, func(fl validator.FieldLevel) bool {
			return entity.IsValidReceivedAt(fl.Field().String())
		})
		_ = v.RegisterValidation(tagRole, func(fl validator.FieldLevel) bool {
			return entity.IsValidRole(fl.Field().String())
		})
	})
}

// fieldName 校验信息使用客户端提交的字段名（json 优先，其次 form）
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}
