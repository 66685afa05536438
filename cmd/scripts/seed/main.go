package main

import (
	"context"
	"fmt"

	"github.com/jessevdk/go-flags"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shelfwise/shelfwise/pkg/auth"
	"github.com/shelfwise/shelfwise/pkg/books"
	"github.com/shelfwise/shelfwise/pkg/config"
	"github.com/shelfwise/shelfwise/pkg/database"
	"github.com/shelfwise/shelfwise/pkg/migrations"
	"github.com/shelfwise/shelfwise/pkg/models"
)

var sampleBooks = []models.Book{
	{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441172719", Genre: "Science Fiction", PublicationYear: 1965, Quantity: 3},
	{Title: "Emma", Author: "Jane Austen", ISBN: "9780141439587", Genre: "Classics", PublicationYear: 1815, Quantity: 2},
	{Title: "The Hobbit", Author: "J.R.R. Tolkien", ISBN: "9780547928227", Genre: "Fantasy", PublicationYear: 1937, Quantity: 4},
	{Title: "Beloved", Author: "Toni Morrison", ISBN: "9781400033416", Genre: "Fiction", PublicationYear: 1987, Quantity: 1},
}

func main() {
	ctx := context.Background()
	log := logger.New()

	var opts struct {
		Name     string `long:"name" default:"Administrator" description:"Name of the admin user"`
		Email    string `short:"e" long:"email" required:"true" description:"Email of the admin user"`
		Password string `short:"p" long:"password" required:"true" description:"Password of the admin user"`
		Books    bool   `short:"b" long:"books" description:"Also add a handful of sample books"`
	}

	_, err := flags.Parse(&opts)
	if err != nil {
		log.Err(err).Fatal("flags parse error")
	}

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}
	defer db.Close()

	if _, err := migrations.BringUpToDate(ctx, db); err != nil {
		log.Err(err).Fatal("migrations error")
	}

	authService := auth.NewService(db, cfg)
	user, err := authService.CreateUser(ctx, auth.CreateUserOptions{
		Name:     opts.Name,
		Email:    opts.Email,
		Password: opts.Password,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		log.Err(err).Fatal("create admin error")
	}
	fmt.Printf("Created admin %s (id %d)\n", user.Email, user.ID)

	if !opts.Books {
		return
	}

	bookService := books.NewService(db, cfg)
	for i := range sampleBooks {
		book := sampleBooks[i]
		if err := bookService.CreateBook(ctx, &book); err != nil {
			log.Err(err).Warn("skipping sample book", logger.Data{"isbn": book.ISBN})
			continue
		}
		fmt.Printf("Added %q (%d copies)\n", book.Title, book.Quantity)
	}
}
