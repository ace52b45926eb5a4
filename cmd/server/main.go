package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"event-ticketing/config"
	"event-ticketing/internal/database"
	"event-ticketing/internal/handler"
	"event-ticketing/internal/inventory"
	"event-ticketing/internal/payment"
	"event-ticketing/internal/queue"
	"event-ticketing/internal/repository"
	"event-ticketing/internal/service"
	"event-ticketing/internal/uow"
	"event-ticketing/internal/worker"
	"event-ticketing/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	log := logger.WithComponent("main")
	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer pool.Close()

	// repositories + unit of work
	eventRepo := repository.NewEventRepository(pool)
	ticketTypeRepo := repository.NewTicketTypeRepository(pool)
	reservationRepo := repository.NewReservationRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	issuedTicketRepo := repository.NewIssuedTicketRepository(pool)
	unitOfWork := uow.NewPgxUnitOfWork(pool)

	// 庫存後端與回執隊列一起切換：memory 給單副本, redis 給多副本
	var ticketInventory inventory.TicketInventory
	var receiptQueue queue.ReceiptQueue
	switch cfg.Inventory.Backend {
	case "redis":
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			log.Fatal("failed to initialize redis", zap.Error(err))
		}
		defer rdb.Close()

		ticketInventory = inventory.NewRedisTicketInventory(rdb)
		receiptQueue, err = queue.NewRedisStreamReceiptQueue(rdb, "", nil)
		if err != nil {
			log.Fatal("failed to initialize receipt queue", zap.Error(err))
		}
	case "memory":
		ticketInventory = inventory.NewMemoryTicketInventory()
		receiptQueue = queue.NewMemoryReceiptQueue(cfg.Worker.ReceiptQueueBuffer)
	default:
		log.Fatal("unknown inventory backend", zap.String("backend", cfg.Inventory.Backend))
	}

	// services
	ticketTypeService := service.NewTicketTypeService(ticketTypeRepo, eventRepo, ticketInventory, unitOfWork)
	reservationService := service.NewReservationService(reservationRepo, ticketInventory, unitOfWork, cfg.Reservation.HoldTTL)
	orderService := service.NewOrderService(
		orderRepo, issuedTicketRepo, reservationService, eventRepo,
		payment.NewSandboxGateway(), receiptQueue, unitOfWork,
	)

	// 啟動時把 DB 裡的票種灌進庫存後端
	if err := ticketTypeService.WarmUpInventory(ctx); err != nil {
		log.Fatal("failed to warm up inventory", zap.Error(err))
	}

	// workers
	receiptWorker := worker.NewReceiptWorker(receiptQueue, nil)
	if err := receiptWorker.Start(ctx); err != nil {
		log.Fatal("failed to start receipt worker", zap.Error(err))
	}
	expiryWorker := worker.NewExpiryWorker(reservationService, cfg.Worker.ExpirySweepInterval)
	if err := expiryWorker.Start(ctx); err != nil {
		log.Fatal("failed to start expiry worker", zap.Error(err))
	}

	// http
	router := gin.Default()
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	handler.NewTicketTypeHandler(ticketTypeService).RegisterRoutes(router)
	handler.NewReservationHandler(reservationService).RegisterRoutes(router)
	handler.NewOrderHandler(orderService).RegisterRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
	log.Info("server stopped")
}
