package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/safar/go-cart-store/internal/cache"
	"github.com/safar/go-cart-store/internal/cart"
	"github.com/safar/go-cart-store/internal/config"
	"github.com/safar/go-cart-store/internal/database"
	"github.com/safar/go-cart-store/internal/session"
	"github.com/safar/go-cart-store/internal/store"
	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database successfully")

	var cartCache cache.CartCache
	if !cfg.Redis.Disabled {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer client.Close()
		cartCache = cache.NewRedisCache(client, cfg.Redis.CartTTL)
		log.Printf("Cart cache enabled at %s", cfg.Redis.Addr)
	}

	carts := store.NewCarts(db)
	products := store.NewProducts(db)
	users := store.NewUsers(db)
	svc := cart.NewService(carts, products, cartCache)
	resolver := session.Resolver{}

	mux := http.NewServeMux()

	mux.HandleFunc("/cart", handleCart(svc, resolver))
	mux.HandleFunc("/cart/items", handleCartItems(svc, resolver))
	mux.HandleFunc("/cart/items/", handleCartItemByID(svc, resolver))
	mux.HandleFunc("/cart/total", handleCartTotal(svc, resolver))
	mux.HandleFunc("/cart/merge", handleCartMerge(svc, resolver))
	mux.HandleFunc("/products", handleProducts(products))
	mux.HandleFunc("/products/", handleProductByID(products))
	mux.HandleFunc("/users", handleUsers(users))
	mux.HandleFunc("/users/", handleUserByID(users))

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func handleCart(svc *cart.Service, resolver session.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		identity, err := resolver.Resolve(w, r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		switch r.Method {
		case http.MethodGet:
			c, err := svc.GetCart(ctx, identity)
			if err != nil {
				respondError(w, statusFor(err), err.Error())
				return
			}
			respondJSON(w, http.StatusOK, c)

		case http.MethodDelete:
			if err := svc.Clear(ctx, identity); err != nil {
				respondError(w, statusFor(err), err.Error())
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleCartItems(svc *cart.Service, resolver session.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		identity, err := resolver.Resolve(w, r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		var req struct {
			ProductID int64 `json:"product_id"`
			Quantity  int   `json:"quantity"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Quantity == 0 {
			req.Quantity = 1
		}

		c, err := svc.AddItem(ctx, identity, req.ProductID, req.Quantity)
		if err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}

		respondJSON(w, http.StatusOK, c)
	}
}

func handleCartItemByID(svc *cart.Service, resolver session.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		identity, err := resolver.Resolve(w, r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		idStr := r.URL.Path[len("/cart/items/"):]
		productID, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid product ID")
			return
		}

		switch r.Method {
		case http.MethodPut:
			var req struct {
				Quantity int `json:"quantity"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			c, err := svc.SetQuantity(ctx, identity, productID, req.Quantity)
			if err != nil {
				respondError(w, statusFor(err), err.Error())
				return
			}
			respondJSON(w, http.StatusOK, c)

		case http.MethodDelete:
			c, err := svc.RemoveItem(ctx, identity, productID)
			if err != nil {
				respondError(w, statusFor(err), err.Error())
				return
			}
			respondJSON(w, http.StatusOK, c)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleCartTotal(svc *cart.Service, resolver session.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		identity, err := resolver.Resolve(w, r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		c, err := svc.GetCart(ctx, identity)
		if err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}

		total, err := svc.ComputeTotal(ctx, c)
		if err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}

		respondJSON(w, http.StatusOK, total)
	}
}

// handleCartMerge is the login-transition hook: the auth front calls it
// once the user is authenticated, and the session cart (if any) folds into
// the user's cart.
func handleCartMerge(svc *cart.Service, resolver session.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		identity, err := resolver.Resolve(w, r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !identity.IsAuthenticated() {
			respondError(w, http.StatusUnauthorized, "Merge requires an authenticated user")
			return
		}

		sessionID := resolver.SessionID(r)

		c, err := svc.Merge(ctx, identity, sessionID)
		if err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}

		if sessionID != "" {
			session.ClearSession(w)
		}
		respondJSON(w, http.StatusOK, c)
	}
}

func handleProducts(products *store.Products) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		var req struct {
			SKU         string  `json:"sku"`
			Name        string  `json:"name"`
			Description string  `json:"description"`
			Price       float64 `json:"price"`
			Stock       int     `json:"stock"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		price := decimal.NewFromFloat(req.Price)
		product, err := products.Create(ctx, req.SKU, req.Name, req.Description, price, req.Stock)
		if err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}

		respondJSON(w, http.StatusCreated, product)
	}
}

func handleProductByID(products *store.Products) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		idStr := r.URL.Path[len("/products/"):]
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid product ID")
			return
		}

		switch r.Method {
		case http.MethodGet:
			product, err := products.Get(ctx, id)
			if err != nil {
				respondError(w, statusFor(err), err.Error())
				return
			}
			respondJSON(w, http.StatusOK, product)

		case http.MethodDelete:
			if err := products.Delete(ctx, id); err != nil {
				respondError(w, statusFor(err), err.Error())
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleUsers(users *store.Users) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		var req struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		user, err := users.Create(ctx, req.Email, req.Name)
		if err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}

		respondJSON(w, http.StatusCreated, user)
	}
}

func handleUserByID(users *store.Users) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		idStr := r.URL.Path[len("/users/"):]
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid user ID")
			return
		}

		user, err := users.Get(ctx, id)
		if err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}

		respondJSON(w, http.StatusOK, user)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, database.ErrCartNotFound),
		errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrIdentityConflict),
		errors.Is(err, cart.ErrInvalidQuantity):
		return http.StatusBadRequest
	case database.IsRetryable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
