package handler

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"book-review-service/internal/adapter/gin/response"
	pkgerrors "book-review-service/pkg/errors"
	"book-review-service/pkg/validation"
)

var bindingNamesOnce sync.Once

// useJSONFieldNames makes gin's binding validator report json field names.
func useJSONFieldNames() {
	bindingNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
}

// bindJSON decodes the request body into obj and reports failures as validation errors.
func bindJSON(c *gin.Context, obj any) error {
	useJSONFieldNames()
	if err := c.ShouldBindJSON(obj); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return validation.Format(err)
		}
		return pkgerrors.NewValidationError("body", "Invalid request body")
	}
	return nil
}

// respondError writes err using the shared error envelope.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	response.Error(c, log, err)
}
