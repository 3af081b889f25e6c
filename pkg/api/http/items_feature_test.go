package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Pallinder/go-randomdata"
	"github.com/adamluzsi/testcase"
	"github.com/stretchr/testify/require"

	"github.com/aescanero/agile-ci-demo/pkg/domain"
)

// Feature: todo items
//
//	Scenario: create an item
//	  Given the API is running
//	  When I create an item with id <id> and title "<title>"
//	  Then the item with id <id> exists with title "<title>" and not done
func TestItemsFeature(t *testing.T) {
	s := testcase.NewSpec(t)

	s.Let(`server`, func(t *testcase.T) interface{} { return newTestServer(t) })
	s.Let(`id`, func(t *testcase.T) interface{} { return int64(randomdata.Number(1, 100000)) })
	s.Let(`title`, func(t *testcase.T) interface{} { return randomdata.SillyName() })

	var server = func(t *testcase.T) *Server { return t.I(`server`).(*Server) }
	var id = func(t *testcase.T) int64 { return t.I(`id`).(int64) }
	var title = func(t *testcase.T) string { return t.I(`title`).(string) }

	var createItem = func(t *testcase.T) *httptest.ResponseRecorder {
		body := fmt.Sprintf(`{"id":%d,"title":%q}`, id(t), title(t))
		return do(t, server(t), http.MethodPost, "/items", body)
	}
	var getItem = func(t *testcase.T) *httptest.ResponseRecorder {
		return do(t, server(t), http.MethodGet, fmt.Sprintf("/items/%d", id(t)), "")
	}
	var markDone = func(t *testcase.T) *httptest.ResponseRecorder {
		return do(t, server(t), http.MethodPatch, fmt.Sprintf("/items/%d/done", id(t)), "")
	}

	s.Describe(`the API is running`, func(s *testcase.Spec) {
		s.When(`I create an item with a fresh id and title`, func(s *testcase.Spec) {
			s.Let(`created`, func(t *testcase.T) interface{} { return createItem(t) })
			s.Before(func(t *testcase.T) { t.I(`created`) })

			s.Then(`the create answers 201 with the item not done`, func(t *testcase.T) {
				resp := t.I(`created`).(*httptest.ResponseRecorder)
				require.Equal(t, http.StatusCreated, resp.Code)
				require.Equal(t, domain.Item{ID: id(t), Title: title(t)}, decodeItem(t, resp))
			})

			s.Then(`the item exists with that title and not done`, func(t *testcase.T) {
				resp := getItem(t)
				require.Equal(t, http.StatusOK, resp.Code)
				require.Equal(t, domain.Item{ID: id(t), Title: title(t)}, decodeItem(t, resp))
			})

			s.And(`I create it again`, func(s *testcase.Spec) {
				s.Then(`I receive 409 with the conflict detail`, func(t *testcase.T) {
					resp := createItem(t)
					require.Equal(t, http.StatusConflict, resp.Code)
					require.Equal(t, DetailItemExists, decodeDetail(t, resp))
				})
			})

			s.And(`I mark it as done`, func(s *testcase.Spec) {
				s.Before(func(t *testcase.T) {
					require.Equal(t, http.StatusOK, markDone(t).Code)
				})

				s.Then(`fetching it shows done`, func(t *testcase.T) {
					resp := getItem(t)
					require.Equal(t, http.StatusOK, resp.Code)
					require.True(t, decodeItem(t, resp).Done)
				})

				s.Then(`marking it again still answers 200 with done`, func(t *testcase.T) {
					resp := markDone(t)
					require.Equal(t, http.StatusOK, resp.Code)
					require.True(t, decodeItem(t, resp).Done)
				})
			})
		})

		s.When(`no item was created`, func(s *testcase.Spec) {
			s.Then(`fetching it answers 404`, func(t *testcase.T) {
				resp := getItem(t)
				require.Equal(t, http.StatusNotFound, resp.Code)
				require.Equal(t, DetailNotFound, decodeDetail(t, resp))
			})

			s.Then(`marking it done answers 404`, func(t *testcase.T) {
				resp := markDone(t)
				require.Equal(t, http.StatusNotFound, resp.Code)
				require.Equal(t, DetailNotFound, decodeDetail(t, resp))
			})
		})
	})
}
