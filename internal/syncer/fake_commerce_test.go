package syncer_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"pedalhouse/internal/commerce"
)

// fakeCommerce emulates the commerce platform's REST surface and records the
// order of writes so tests can assert on sequencing.
type fakeCommerce struct {
	mu sync.Mutex

	collections []commerce.Collection
	products    []commerce.Product
	variants    []commerce.Variant

	productInputs []commerce.ProductInput
	priceInputs   []commerce.PriceInput

	createdCollections []string // slugs, creation order
	deletedCollections []string // ids, deletion order
	deletedProducts    []string
	deletedVariants    []string

	failCreateCollection map[string]bool // by slug
	failCreateProduct    map[string]bool // by slug
	failDeleteProduct    map[string]bool // by id
	failDeleteVariant    map[string]bool // by id

	nextID int
	srv    *httptest.Server
}

func newFakeCommerce(t *testing.T) *fakeCommerce {
	t.Helper()
	f := &fakeCommerce{
		failCreateCollection: map[string]bool{},
		failCreateProduct:    map[string]bool{},
		failDeleteProduct:    map[string]bool{},
		failDeleteVariant:    map[string]bool{},
	}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /product_collections", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		data := f.collections
		if q := r.URL.Query().Get("query"); q != "" {
			data = nil
			for _, c := range f.collections {
				if strings.Contains(strings.ToLower(c.Name), strings.ToLower(q)) {
					data = append(data, c)
				}
			}
		}
		writeList(w, data)
	})
	mux.HandleFunc("POST /product_collections", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Collection commerce.CollectionInput `json:"product_collection"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failCreateCollection[body.Collection.Slug] {
			http.Error(w, `{"message":"validation failed"}`, http.StatusUnprocessableEntity)
			return
		}
		f.nextID++
		c := commerce.Collection{
			ID:       fmt.Sprintf("c-%d", f.nextID),
			Name:     body.Collection.Name,
			Slug:     body.Collection.Slug,
			Metadata: body.Collection.Metadata,
		}
		f.collections = append(f.collections, c)
		f.createdCollections = append(f.createdCollections, c.Slug)
		json.NewEncoder(w).Encode(c)
	})
	mux.HandleFunc("DELETE /product_collections/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		f.mu.Lock()
		defer f.mu.Unlock()
		f.deletedCollections = append(f.deletedCollections, id)
		keep := f.collections[:0]
		for _, c := range f.collections {
			if c.ID != id {
				keep = append(keep, c)
			}
		}
		f.collections = keep
		w.Write([]byte("{}"))
	})

	mux.HandleFunc("GET /products", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeList(w, f.products)
	})
	mux.HandleFunc("POST /products", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Product commerce.ProductInput `json:"product"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failCreateProduct[body.Product.Slug] {
			http.Error(w, `{"message":"validation failed"}`, http.StatusUnprocessableEntity)
			return
		}
		f.nextID++
		p := commerce.Product{ID: fmt.Sprintf("p-%d", f.nextID), Name: body.Product.Name, Slug: body.Product.Slug}
		f.products = append(f.products, p)
		f.productInputs = append(f.productInputs, body.Product)
		json.NewEncoder(w).Encode(p)
	})
	mux.HandleFunc("DELETE /products/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failDeleteProduct[id] {
			http.Error(w, `{"message":"locked"}`, http.StatusConflict)
			return
		}
		f.deletedProducts = append(f.deletedProducts, id)
		keep := f.products[:0]
		for _, p := range f.products {
			if p.ID != id {
				keep = append(keep, p)
			}
		}
		f.products = keep
		w.Write([]byte("{}"))
	})

	mux.HandleFunc("GET /variants", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeList(w, f.variants)
	})
	mux.HandleFunc("DELETE /variants/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failDeleteVariant[id] {
			http.Error(w, `{"message":"locked"}`, http.StatusConflict)
			return
		}
		f.deletedVariants = append(f.deletedVariants, id)
		w.Write([]byte("{}"))
	})

	mux.HandleFunc("POST /prices", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Price commerce.PriceInput `json:"price"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.nextID++
		f.priceInputs = append(f.priceInputs, body.Price)
		json.NewEncoder(w).Encode(commerce.Price{ID: fmt.Sprintf("pr-%d", f.nextID), Product: body.Price.Product, Amount: body.Price.Amount})
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func writeList(w http.ResponseWriter, data any) {
	json.NewEncoder(w).Encode(map[string]any{
		"data":       data,
		"pagination": map[string]int{"count": 0, "limit": 100, "page": 1},
	})
}

func (f *fakeCommerce) client() *commerce.Client {
	return commerce.NewClient(f.srv.URL, "test-key")
}

func (f *fakeCommerce) addCollection(id, name, slug string, md map[string]string) {
	f.collections = append(f.collections, commerce.Collection{ID: id, Name: name, Slug: slug, Metadata: md})
}

func fakeProduct(id string) commerce.Product { return commerce.Product{ID: id} }
func fakeVariant(id string) commerce.Variant { return commerce.Variant{ID: id} }
