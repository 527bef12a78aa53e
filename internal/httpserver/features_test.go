package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"storefront/internal/catalog"
	"storefront/internal/catalogstub"
	"storefront/internal/domain"
	"storefront/internal/repository/localstore"
	"storefront/internal/repository/product"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/service/checkout"
	"storefront/internal/service/order"
	productsvc "storefront/internal/service/product"
	"storefront/internal/session"
	"storefront/internal/view"
)

// orderRecorder sits in front of the catalog stub and records order posts.
type orderRecorder struct {
	mu      sync.Mutex
	next    http.Handler
	orders  []domain.Order
	failing bool
}

func (r *orderRecorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method == http.MethodPost && strings.HasSuffix(req.URL.Path, "/products/order") {
		body, _ := io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewReader(body))
		r.mu.Lock()
		failing := r.failing
		var o domain.Order
		if err := json.Unmarshal(body, &o); err == nil {
			r.orders = append(r.orders, o)
		}
		r.mu.Unlock()
		if failing {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	r.next.ServeHTTP(w, req)
}

type checkoutTestContext struct {
	catalog  product.Repository
	recorder *orderRecorder
	upstream *httptest.Server
	carts    *cartsvc.Service
	router   *gin.Engine
	cookie   *http.Cookie
	last     *httptest.ResponseRecorder
}

func (tc *checkoutTestContext) reset() error {
	tc.close()
	gin.SetMode(gin.TestMode)
	tc.catalog = product.NewMemory()
	tc.recorder = &orderRecorder{next: catalogstub.NewRouter(productsvc.New(tc.catalog), nil)}
	tc.upstream = httptest.NewServer(tc.recorder)

	client := catalog.NewClient(tc.upstream.URL+"/api", 5*time.Second, nil)
	tc.carts = cartsvc.New(localstore.NewMemory(), nil)
	validator, err := checkout.NewValidator()
	if err != nil {
		return err
	}
	router, err := buildRouter(zap.NewNop(), Deps{
		Catalog:   client,
		CartSvc:   tc.carts,
		Renderer:  view.NewRenderer(client, nil),
		Validator: validator,
		Orders:    order.NewSubmitter(tc.carts, client, validator, nil),
		Sessions:  session.NewManager(false),
	})
	if err != nil {
		return err
	}
	tc.router = router
	tc.cookie = nil
	tc.last = nil
	return nil
}

func (tc *checkoutTestContext) close() {
	if tc.upstream != nil {
		tc.upstream.Close()
		tc.upstream = nil
	}
}

func (tc *checkoutTestContext) post(target string, values url.Values) {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	tc.serve(req)
}

func (tc *checkoutTestContext) get(target string) {
	tc.serve(httptest.NewRequest(http.MethodGet, target, nil))
}

func (tc *checkoutTestContext) serve(req *http.Request) {
	req.AddCookie(tc.cookie)
	rec := httptest.NewRecorder()
	tc.router.ServeHTTP(rec, req)
	tc.last = rec
}

func (tc *checkoutTestContext) cart() (domain.Cart, error) {
	return tc.carts.Cart(context.Background(), tc.cookie.Value)
}

func (tc *checkoutTestContext) theCatalogOffersProduct(id, name string, price int, colors string) error {
	_, err := tc.catalog.Upsert(context.Background(), domain.ProductSnapshot{
		ID:     id,
		Name:   name,
		Price:  int64(price),
		Colors: strings.Split(colors, ","),
	})
	return err
}

func (tc *checkoutTestContext) aNewVisitor() error {
	tc.cookie = &http.Cookie{Name: session.CookieName, Value: session.NewID()}
	return nil
}

func (tc *checkoutTestContext) theVisitorAdds(quantity int, id, color string) error {
	tc.post("/product/add", url.Values{"id": {id}, "color": {color}, "quantity": {strconv.Itoa(quantity)}})
	if tc.last.Code != http.StatusOK {
		return fmt.Errorf("add to cart: status %d", tc.last.Code)
	}
	return nil
}

func (tc *checkoutTestContext) theVisitorSetsQuantity(id, color string, quantity int) error {
	tc.post("/cart/quantity", url.Values{"id": {id}, "color": {color}, "quantity": {strconv.Itoa(quantity)}})
	if tc.last.Code != http.StatusSeeOther {
		return fmt.Errorf("set quantity: status %d", tc.last.Code)
	}
	return nil
}

func (tc *checkoutTestContext) theVisitorRemoves(id, color string) error {
	tc.post("/cart/delete", url.Values{"id": {id}, "color": {color}})
	if tc.last.Code != http.StatusSeeOther {
		return fmt.Errorf("remove: status %d", tc.last.Code)
	}
	return nil
}

func (tc *checkoutTestContext) theVisitorOpensTheCartPage() error {
	tc.get("/cart")
	if tc.last.Code != http.StatusOK {
		return fmt.Errorf("cart page: status %d", tc.last.Code)
	}
	return nil
}

func (tc *checkoutTestContext) theVisitorOrders(first, last, address, city, email string) error {
	tc.post("/cart/order", url.Values{
		"firstName": {first},
		"lastName":  {last},
		"address":   {address},
		"city":      {city},
		"email":     {email},
	})
	return nil
}

func (tc *checkoutTestContext) theCatalogStopsAcceptingOrders() error {
	tc.recorder.mu.Lock()
	tc.recorder.failing = true
	tc.recorder.mu.Unlock()
	return nil
}

func (tc *checkoutTestContext) theCartHasLines(n int) error {
	c, err := tc.cart()
	if err != nil {
		return err
	}
	if len(c.Lines) != n {
		return fmt.Errorf("expected %d lines, got %d", n, len(c.Lines))
	}
	return nil
}

func (tc *checkoutTestContext) theLineHasQuantity(id, color string, quantity int) error {
	c, err := tc.cart()
	if err != nil {
		return err
	}
	i, ok := c.FindIndex(domain.LineKey{ProductID: id, Color: color})
	if !ok {
		return fmt.Errorf("no line for %s/%s", id, color)
	}
	if got := c.Lines[i].Quantity; got != quantity {
		return fmt.Errorf("expected quantity %d, got %d", quantity, got)
	}
	return nil
}

var spanPattern = regexp.MustCompile(`<span id="(totalQuantity|totalPrice)">([^<]*)</span>`)

func (tc *checkoutTestContext) pageValue(id string) (string, bool) {
	for _, m := range spanPattern.FindAllStringSubmatch(tc.last.Body.String(), -1) {
		if m[1] == id {
			return m[2], true
		}
	}
	return "", false
}

func (tc *checkoutTestContext) thePageShowsTotalQuantity(n int) error {
	got, ok := tc.pageValue("totalQuantity")
	if !ok || got != strconv.Itoa(n) {
		return fmt.Errorf("expected total quantity %d, got %q", n, got)
	}
	return nil
}

func (tc *checkoutTestContext) thePageShowsTotalPrice(n int) error {
	got, ok := tc.pageValue("totalPrice")
	if !ok || got != formatPrice(int64(n)) {
		return fmt.Errorf("expected total price %d, got %q", n, got)
	}
	return nil
}

func (tc *checkoutTestContext) thePageShowsNoTotals() error {
	if _, ok := tc.pageValue("totalPrice"); ok {
		return errors.New("expected no total price on the page")
	}
	return nil
}

func (tc *checkoutTestContext) thePageSays(text string) error {
	if !strings.Contains(tc.last.Body.String(), text) {
		return fmt.Errorf("expected page to contain %q", text)
	}
	return nil
}

func (tc *checkoutTestContext) theVisitorIsSentToConfirmation() error {
	if tc.last.Code != http.StatusSeeOther {
		return fmt.Errorf("expected 303, got %d", tc.last.Code)
	}
	loc := tc.last.Header().Get("Location")
	if !strings.HasPrefix(loc, "/confirmation?orderId=") || len(loc) == len("/confirmation?orderId=") {
		return fmt.Errorf("unexpected redirect %q", loc)
	}
	return nil
}

func (tc *checkoutTestContext) theCatalogReceivedOrders(n int) error {
	tc.recorder.mu.Lock()
	defer tc.recorder.mu.Unlock()
	if len(tc.recorder.orders) != n {
		return fmt.Errorf("expected %d orders, got %d", n, len(tc.recorder.orders))
	}
	return nil
}

func (tc *checkoutTestContext) theCatalogReceivedOrderWithProducts(n, products int) error {
	if err := tc.theCatalogReceivedOrders(n); err != nil {
		return err
	}
	tc.recorder.mu.Lock()
	defer tc.recorder.mu.Unlock()
	if got := len(tc.recorder.orders[0].Products); got != products {
		return fmt.Errorf("expected %d products in the order, got %d", products, got)
	}
	return nil
}

func (tc *checkoutTestContext) theCartIsEmpty() error {
	return tc.theCartHasLines(0)
}

func (tc *checkoutTestContext) theResponseStatusIs(status int) error {
	if tc.last.Code != status {
		return fmt.Errorf("expected status %d, got %d", status, tc.last.Code)
	}
	return nil
}

func initializeCheckoutScenario(ctx *godog.ScenarioContext) {
	tc := &checkoutTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		return ctx, tc.reset()
	})
	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		tc.close()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the catalog offers product "([^"]*)" named "([^"]*)" at (\d+) in colors "([^"]*)"$`, tc.theCatalogOffersProduct)
	ctx.Step(`^a new visitor$`, tc.aNewVisitor)
	ctx.Step(`^the catalog stops accepting orders$`, tc.theCatalogStopsAcceptingOrders)

	// When steps
	ctx.Step(`^the visitor adds (\d+) of "([^"]*)" in "([^"]*)"$`, tc.theVisitorAdds)
	ctx.Step(`^the visitor sets the quantity of "([^"]*)" in "([^"]*)" to (\d+)$`, tc.theVisitorSetsQuantity)
	ctx.Step(`^the visitor removes "([^"]*)" in "([^"]*)"$`, tc.theVisitorRemoves)
	ctx.Step(`^the visitor opens the cart page$`, tc.theVisitorOpensTheCartPage)
	ctx.Step(`^the visitor orders as "([^"]*)" "([^"]*)" at "([^"]*)" in "([^"]*)" with email "([^"]*)"$`, tc.theVisitorOrders)

	// Then steps
	ctx.Step(`^the cart has (\d+) lines?$`, tc.theCartHasLines)
	ctx.Step(`^the line "([^"]*)" in "([^"]*)" has quantity (\d+)$`, tc.theLineHasQuantity)
	ctx.Step(`^the page shows a total quantity of (\d+)$`, tc.thePageShowsTotalQuantity)
	ctx.Step(`^the page shows a total price of (\d+)$`, tc.thePageShowsTotalPrice)
	ctx.Step(`^the page shows no totals$`, tc.thePageShowsNoTotals)
	ctx.Step(`^the page says "([^"]*)"$`, tc.thePageSays)
	ctx.Step(`^the visitor is sent to the confirmation page$`, tc.theVisitorIsSentToConfirmation)
	ctx.Step(`^the catalog received (\d+) orders?$`, tc.theCatalogReceivedOrders)
	ctx.Step(`^the catalog received (\d+) order with (\d+) products$`, tc.theCatalogReceivedOrderWithProducts)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^the response status is (\d+)$`, tc.theResponseStatusIs)
}

func TestCheckoutFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeCheckoutScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../../features/checkout.feature"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
