package server

import (
	"net/http"

	"github.com/juju/errors"
	"github.com/oxtoacart/bpool"

	"github.com/connstate/connstate/server/logger"
)

const defaultBufferPoolSize = 128

type Renderer struct {
	log logger.Logger

	bufPool   *bpool.BufferPool
	templates Templates
	Version   string
	BaseURL   string
}

func NewRenderer(log logger.Logger, templates Templates, baseURL string, version string) *Renderer {
	return &Renderer{
		log:       log.WithNamespaceAppended("renderer"),
		bufPool:   bpool.NewBufferPool(defaultBufferPoolSize),
		templates: templates,
		Version:   version,
		BaseURL:   baseURL,
	}
}

type PageHandler func(
	w http.ResponseWriter,
	r *http.Request,
) (templateName string, data interface{}, err error)

func (tr *Renderer) Render(h PageHandler) http.HandlerFunc {
	fn := func(w http.ResponseWriter, r *http.Request) {
		templateName, data, err := h(w, r)
		if err == nil && templateName == "" {
			return
		}

		template, ok := tr.templates.Get(templateName)
		if !ok {
			tr.log.Error("Template not found", nil, logger.Ctx{
				"template": templateName,
			})
			w.WriteHeader(http.StatusInternalServerError)

			return
		}

		if err != nil {
			tr.log.Error("Page handler", errors.Trace(err), logger.Ctx{
				"template": templateName,
			})
			w.WriteHeader(http.StatusInternalServerError)
		}

		dataMap := map[string]interface{}{
			"Data":    data,
			"BaseURL": tr.BaseURL,
			"Version": tr.Version,
		}

		buf := tr.bufPool.Get()
		defer tr.bufPool.Put(buf)

		err = template.Execute(buf, dataMap)
		if err != nil {
			tr.log.Error("Render template", errors.Trace(err), logger.Ctx{
				"template": templateName,
			})
			w.WriteHeader(http.StatusInternalServerError)

			return
		}

		w.WriteHeader(http.StatusOK)

		if _, err := buf.WriteTo(w); err != nil {
			tr.log.Error("Write rendered template", errors.Trace(err), nil)
		}
	}

	return http.HandlerFunc(fn)
}
