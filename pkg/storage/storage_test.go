package storage_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/aletheia/pkg/storage"
	"github.com/papercomputeco/aletheia/pkg/storage/inmemory"
	"github.com/papercomputeco/aletheia/pkg/storage/postgres"
	"github.com/papercomputeco/aletheia/pkg/storage/sqlite"
	testutils "github.com/papercomputeco/aletheia/pkg/utils/test"
)

var _ = Describe("NotFoundError", func() {
	It("names the missing id", func() {
		Expect(storage.NotFoundError{ID: "x"}.Error()).To(Equal("record not found: x"))
		Expect(storage.NotFoundError{}.Error()).To(Equal("record not found"))
	})
})

var _ = Describe("inmemory.Driver", func() {
	testutils.DescribeHistoryDriver(func() storage.Driver {
		return inmemory.NewDriver()
	})
})

var _ = Describe("sqlite.SQLiteDriver", func() {
	testutils.DescribeHistoryDriver(func() storage.Driver {
		d, err := sqlite.NewSQLiteDriver(context.Background(), ":memory:")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(d.Close)
		return d
	})

	Context("backed by a file", func() {
		testutils.DescribeHistoryDriver(func() storage.Driver {
			path := filepath.Join(GinkgoT().TempDir(), "history.sqlite")
			d, err := sqlite.NewSQLiteDriver(context.Background(), path)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(d.Close)
			return d
		})
	})

	It("creates the verdicts table and its created_at index", func() {
		ctx := context.Background()
		path := filepath.Join(GinkgoT().TempDir(), "history.sqlite")

		d, err := sqlite.NewSQLiteDriver(ctx, path)
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Close()).To(Succeed())

		db, err := sql.Open("sqlite3", path)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(db.Close)

		var names []string
		rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE tbl_name = 'verdicts' ORDER BY name")
		Expect(err).NotTo(HaveOccurred())
		defer rows.Close()
		for rows.Next() {
			var name string
			Expect(rows.Scan(&name)).To(Succeed())
			names = append(names, name)
		}
		Expect(rows.Err()).NotTo(HaveOccurred())
		Expect(names).To(ContainElements("verdicts", "verdicts_created_at"))
	})

	It("keeps nullable columns empty when unset", func() {
		ctx := context.Background()
		d, err := sqlite.NewSQLiteDriver(ctx, filepath.Join(GinkgoT().TempDir(), "history.sqlite"))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(d.Close)

		ok, err := d.Put(ctx, &storage.Record{ID: "n", Claim: "sem rótulo"})
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		got, err := d.Get(ctx, "n")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Confidence).To(BeNil())
		Expect(got.Label).To(BeEmpty())
		Expect(got.UsedWeb).To(BeFalse())
		Expect(got.UsedSources).To(BeEmpty())
	})

	It("persists across reopen", func() {
		ctx := context.Background()
		path := filepath.Join(GinkgoT().TempDir(), "history.sqlite")

		d, err := sqlite.NewSQLiteDriver(ctx, path)
		Expect(err).NotTo(HaveOccurred())
		_, err = d.Put(ctx, &storage.Record{ID: "a", Claim: "x"})
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Close()).To(Succeed())

		d, err = sqlite.NewSQLiteDriver(ctx, path)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(d.Close)
		Expect(d.Count(ctx)).To(Equal(1))
	})
})

var _ = Describe("postgres.Driver", func() {
	testutils.DescribeHistoryDriver(func() storage.Driver {
		dsn := os.Getenv("ALETHEIA_TEST_POSTGRES_DSN")
		if dsn == "" {
			Skip("ALETHEIA_TEST_POSTGRES_DSN not set, skipping PostgreSQL tests")
		}

		ctx := context.Background()
		d, err := postgres.NewDriver(ctx, dsn)
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Truncate(ctx)).To(Succeed())
		DeferCleanup(d.Close)
		return d
	})
})
