package receipt

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// mockRenderer is a mock implementation of Renderer
type mockRenderer struct{}

func (m *mockRenderer) Screen(view *Record) ([]byte, error) {
	return []byte("<html>screen:" + view.MerchantName + "</html>"), nil
}

func (m *mockRenderer) Print(view *Record) ([]byte, error) {
	return []byte("<html>print:" + view.MerchantName + "</html>"), nil
}

var _ = Describe("Server", func() {
	var (
		extractor  *mockExtractor
		service    *Service
		auth       BasicAuth
		server     *Server
		testServer *httptest.Server
	)

	setupServer := func() {
		if testServer != nil {
			testServer.Close()
		}
		server = NewServerWithMux(service, &mockRenderer{}, auth, http.NewServeMux())
		testServer = httptest.NewServer(server)
	}

	uploadFile := func(filename, contentType string, data []byte) *http.Response {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile("file", filename)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(writer.Close()).To(Succeed())

		req, err := http.NewRequest("POST", testServer.URL+"/api/receipt", &buf)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", writer.FormDataContentType())
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	BeforeEach(func() {
		extractor = newMockExtractor()
		service = NewService(extractor)
		auth = BasicAuth{}
		setupServer()
	})

	AfterEach(func() {
		if testServer != nil {
			testServer.Close()
		}
	})

	Describe("GET /", func() {
		When("no record exists", func() {
			It("serves the upload page", func() {
				resp, err := http.Get(testServer.URL + "/")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				body, _ := io.ReadAll(resp.Body)
				Expect(string(body)).To(ContainSubstring("Receipt Reform"))
			})
		})

		When("a record is ready", func() {
			BeforeEach(func() {
				resp := uploadFile("receipt.png", "image/png", []byte("img"))
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			})

			It("serves the rendered document view", func() {
				resp, err := http.Get(testServer.URL + "/")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				body, _ := io.ReadAll(resp.Body)
				Expect(string(body)).To(Equal("<html>screen:City Medical Center</html>"))
			})
		})
	})

	Describe("POST /api/receipt", func() {
		When("the upload succeeds", func() {
			It("returns status Created with the record", func() {
				resp := uploadFile("receipt.png", "image/png", []byte("img"))
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))

				var record Record
				Expect(json.NewDecoder(resp.Body).Decode(&record)).To(Succeed())
				Expect(record.MerchantName).To(Equal("City Medical Center"))
			})
		})

		When("the file field is missing", func() {
			It("returns status Bad Request", func() {
				var buf bytes.Buffer
				writer := multipart.NewWriter(&buf)
				Expect(writer.Close()).To(Succeed())

				req, _ := http.NewRequest("POST", testServer.URL+"/api/receipt", &buf)
				req.Header.Set("Content-Type", writer.FormDataContentType())
				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		When("the file type is unsupported", func() {
			It("returns status Bad Request", func() {
				resp := uploadFile("notes.txt", "text/plain", []byte("text"))
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		When("extraction fails", func() {
			BeforeEach(func() {
				extractor.extractErr = io.ErrUnexpectedEOF
			})

			It("returns status Unprocessable Entity with the failure message", func() {
				resp := uploadFile("receipt.png", "image/png", []byte("img"))
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))

				var body map[string]string
				Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
				Expect(body["error"]).NotTo(BeEmpty())
			})
		})
	})

	Describe("GET /api/receipt", func() {
		When("no record exists", func() {
			It("returns status Not Found", func() {
				resp, err := http.Get(testServer.URL + "/api/receipt")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})

		When("a record is ready", func() {
			BeforeEach(func() {
				resp := uploadFile("receipt.png", "image/png", []byte("img"))
				resp.Body.Close()
			})

			It("returns the record as JSON", func() {
				resp, err := http.Get(testServer.URL + "/api/receipt")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))

				var record Record
				Expect(json.NewDecoder(resp.Body).Decode(&record)).To(Succeed())
				Expect(record.Total).To(Equal(162.0))
			})
		})
	})

	Describe("GET /api/receipt/json", func() {
		BeforeEach(func() {
			resp := uploadFile("receipt.png", "image/png", []byte("img"))
			resp.Body.Close()
		})

		It("returns the indented interchange document", func() {
			resp, err := http.Get(testServer.URL + "/api/receipt/json")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body, _ := io.ReadAll(resp.Body)
			Expect(string(body)).To(ContainSubstring("\n  \"merchantName\""))
		})
	})

	Describe("PATCH /api/receipt/date", func() {
		patchDate := func(body string) *http.Response {
			req, err := http.NewRequest("PATCH", testServer.URL+"/api/receipt/date", strings.NewReader(body))
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Content-Type", "application/json")
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			return resp
		}

		When("a record is ready", func() {
			BeforeEach(func() {
				resp := uploadFile("receipt.png", "image/png", []byte("img"))
				resp.Body.Close()
			})

			It("applies the edit and returns the updated record", func() {
				resp := patchDate(`{"date":"2024-04-01"}`)
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var record Record
				Expect(json.NewDecoder(resp.Body).Decode(&record)).To(Succeed())
				Expect(record.Date).To(Equal("2024-04-01"))
			})

			It("rejects an unparseable date", func() {
				resp := patchDate(`{"date":"whenever"}`)
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		When("no record exists", func() {
			It("returns status Conflict", func() {
				resp := patchDate(`{"date":"2024-04-01"}`)
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusConflict))
			})
		})
	})

	Describe("DELETE /api/receipt", func() {
		BeforeEach(func() {
			resp := uploadFile("receipt.png", "image/png", []byte("img"))
			resp.Body.Close()
		})

		It("resets the workflow", func() {
			req, _ := http.NewRequest("DELETE", testServer.URL+"/api/receipt", nil)
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(service.State()).To(Equal(StateEmpty))
		})
	})

	Describe("GET /api/receipt/source", func() {
		When("a record is ready", func() {
			BeforeEach(func() {
				resp := uploadFile("receipt.png", "image/png", []byte("original bytes"))
				resp.Body.Close()
			})

			It("serves the uploaded document with its media type", func() {
				resp, err := http.Get(testServer.URL + "/api/receipt/source")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(resp.Header.Get("Content-Type")).To(Equal("image/png"))
				body, _ := io.ReadAll(resp.Body)
				Expect(body).To(Equal([]byte("original bytes")))
			})
		})

		When("nothing was uploaded", func() {
			It("returns status Not Found", func() {
				resp, err := http.Get(testServer.URL + "/api/receipt/source")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("GET /export", func() {
		When("a record is ready", func() {
			BeforeEach(func() {
				resp := uploadFile("receipt.png", "image/png", []byte("img"))
				resp.Body.Close()
			})

			It("serves the print document", func() {
				resp, err := http.Get(testServer.URL + "/export")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				body, _ := io.ReadAll(resp.Body)
				Expect(string(body)).To(Equal("<html>print:City Medical Center</html>"))
			})
		})

		When("no completed record exists", func() {
			It("returns status Conflict", func() {
				resp, err := http.Get(testServer.URL + "/export")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusConflict))
			})
		})

		When("the last extraction failed", func() {
			BeforeEach(func() {
				extractor.extractErr = io.ErrUnexpectedEOF
				resp := uploadFile("receipt.png", "image/png", []byte("img"))
				resp.Body.Close()
			})

			It("returns status Conflict", func() {
				resp, err := http.Get(testServer.URL + "/export")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusConflict))
			})
		})
	})

	Describe("GET /api/state", func() {
		It("reports empty before any upload", func() {
			resp, err := http.Get(testServer.URL + "/api/state")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			var body map[string]string
			Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
			Expect(body["state"]).To(Equal("empty"))
		})

		It("reports the failure message after a failed cycle", func() {
			extractor.extractErr = io.ErrUnexpectedEOF
			resp := uploadFile("receipt.png", "image/png", []byte("img"))
			resp.Body.Close()

			resp, err := http.Get(testServer.URL + "/api/state")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			var body map[string]string
			Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
			Expect(body["state"]).To(Equal("failed"))
			Expect(body["message"]).NotTo(BeEmpty())
		})
	})

	Describe("basic authentication", func() {
		BeforeEach(func() {
			auth = BasicAuth{Username: "admin", Password: "secret"}
			setupServer()
		})

		It("rejects requests without credentials", func() {
			resp, err := http.Get(testServer.URL + "/api/receipt")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(resp.Header.Get("WWW-Authenticate")).To(ContainSubstring("Basic"))
		})

		It("rejects wrong credentials", func() {
			req, _ := http.NewRequest("GET", testServer.URL+"/api/receipt", nil)
			req.SetBasicAuth("admin", "wrong")
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("accepts correct credentials", func() {
			req, _ := http.NewRequest("GET", testServer.URL+"/api/state", nil)
			req.SetBasicAuth("admin", "secret")
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})
})
