package main

import (
	"log"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/db"
	"app/internal/infra/notifier"
	infraRepo "app/internal/infra/repository"
	"app/internal/server"
	"app/internal/usecase"
	auth "app/internal/usecase/auth_usecase"

	"github.com/joho/godotenv"
)

func main() {
	//.envは開発用。無ければ環境変数だけで動く。
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Product{},
		&model.MenuCategory{},
		&model.MenuItem{},
		&model.Table{},
		&model.Order{},
		&model.OrderItem{},
		&model.Notification{},
		&model.Setting{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	//通知ブロードキャスト（接続できなくても起動は続ける）
	var broadcaster usecase.NotificationBroadcaster
	if cfg.RabbitMQURL != "" {
		b, err := notifier.Dial(cfg.RabbitMQURL)
		if err != nil {
			log.Printf("notifier: amqp unavailable: %v", err)
		} else {
			defer b.Close()
			broadcaster = b
		}
	}

	//Repository（GORM実装）生成
	txManager := infraRepo.NewTxManagerGorm(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	menuCategoryRepo := infraRepo.NewMenuCategoryGormRepository(gormDB)
	menuItemRepo := infraRepo.NewMenuItemGormRepository(gormDB)
	tableRepo := infraRepo.NewTableGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	notificationRepo := infraRepo.NewNotificationGormRepository(gormDB)
	settingRepo := infraRepo.NewSettingGormRepository(gormDB)

	//bcrypt（登録：Hash / ログイン：Verify）
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()
	issuer := auth.NewJWTIssuer(cfg.JWTSecret, time.Duration(cfg.JWTTTLMinutes)*time.Minute)

	//Usecase生成
	settingsUC := usecase.NewSettingsUsecase(settingRepo)
	orderUC := usecase.NewOrderUsecase(txManager, settingsUC, broadcaster)
	orderQueryUC := usecase.NewOrderQueryUsecase(orderRepo, tableRepo)
	productUC := usecase.NewProductUsecase(productRepo, inventoryRepo, orderItemRepo)
	categoryUC := usecase.NewCategoryUsecase(categoryRepo)
	menuUC := usecase.NewMenuUsecase(menuCategoryRepo, menuItemRepo)
	tableUC := usecase.NewTableUsecase(txManager, tableRepo, orderRepo)
	notificationUC := usecase.NewNotificationUsecase(notificationRepo, broadcaster)
	dashboardUC := usecase.NewDashboardUsecase(orderRepo, productRepo, tableRepo)
	loginUC := auth.NewLoginUsecase(userRepo, verifier, issuer, auth.SystemClock{})
	registerUC := auth.NewRegisterUserUsecase(userRepo, hasher)

	//Handler生成
	handlers := server.Handlers{
		Auth:         handler.NewAuthHandler(loginUC, registerUC, userRepo),
		Product:      handler.NewProductHandler(productUC),
		Category:     handler.NewCategoryHandler(categoryUC),
		Menu:         handler.NewMenuHandler(menuUC),
		Table:        handler.NewTableHandler(tableUC),
		Order:        handler.NewOrderHandler(orderUC, orderQueryUC),
		Notification: handler.NewNotificationHandler(notificationUC),
		Settings:     handler.NewSettingsHandler(settingsUC),
		Dashboard:    handler.NewDashboardHandler(dashboardUC),
	}

	//Server起動
	e := server.New(cfg)
	server.RegisterRoutes(e, cfg, handlers)

	if err := server.Start(e, cfg); err != nil {
		log.Fatalf("server: %v", err)
	}
}
