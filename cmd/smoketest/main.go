// Command smoketest probes a running cafeteria-system instance: health,
// menu fetch, and optionally a real order against the first available
// item.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"cafeteria-system/internal/domain"
)

func main() {
	addr := flag.String("addr", "http://localhost:3000", "base URL of the service")
	place := flag.Bool("place", false, "also place a test order")
	flag.Parse()

	client := resty.New().SetBaseURL(*addr).SetTimeout(10 * time.Second)

	resp, err := client.R().Get("/health")
	if err != nil || resp.StatusCode() != 200 {
		log.WithError(err).WithField("status", resp.StatusCode()).Fatal("health check failed")
	}
	log.Info("health ok")

	var menu domain.Menu
	resp, err = client.R().SetResult(&menu).Get("/api/menu")
	if err != nil || resp.StatusCode() != 200 {
		log.WithError(err).WithField("status", resp.StatusCode()).Fatal("menu fetch failed")
	}
	items := 0
	for _, cat := range menu.Menu {
		items += len(cat.Items)
	}
	log.WithFields(log.Fields{"categories": len(menu.Menu), "items": items}).Info("menu ok")

	if !*place {
		return
	}

	item, ok := firstOrderable(menu)
	if !ok {
		log.Fatal("no orderable item found")
	}
	req := domain.CreateOrderRequest{
		StudentName:  "smoketest-" + uuid.NewString()[:8],
		StudentClass: "QA",
		StudentPhone: "000-0000000",
		Items:        []domain.CreateOrderLine{{ItemID: item.ID, Quantity: 1}},
	}
	var placed domain.CreateOrderResponse
	resp, err = client.R().SetBody(req).SetResult(&placed).Post("/api/orders")
	if err != nil || resp.StatusCode() != 200 {
		log.WithError(err).WithFields(log.Fields{
			"status": resp.StatusCode(),
			"body":   string(resp.Body()),
		}).Fatal("order placement failed")
	}
	log.WithFields(log.Fields{"order_id": placed.OrderID, "item": item.DisplayName()}).Info("order placed")
	os.Exit(0)
}

func firstOrderable(menu domain.Menu) (domain.Item, bool) {
	for _, cat := range menu.Menu {
		for _, it := range cat.Items {
			if it.IsHidden {
				continue
			}
			if it.Stock == nil || *it.Stock > 0 {
				return it, true
			}
		}
	}
	return domain.Item{}, false
}
