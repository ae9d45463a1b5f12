package grid

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/surendarrv/datagrid/internal/models"
)

var (
	departments = []string{"Engineering", "Marketing", "Sales", "HR", "Finance", "Operations", "IT", "Legal"}
	positions   = []string{"Manager", "Senior Developer", "Developer", "Analyst", "Coordinator", "Specialist", "Director", "Assistant"}
	statuses    = []string{"Active", "Inactive", "Pending", "On Leave"}
	firstNames  = []string{"John", "Jane", "Mike", "Sarah", "David", "Lisa", "Tom", "Emma", "Chris", "Anna"}
	surnames    = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez"}
)

// Synthetic generates n employee records with ids 1..n. The same seed always
// yields the same population.
func Synthetic(n int, seed uint64) []models.Record {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	records := make([]models.Record, 0, max(n, 0))
	for i := 1; i <= n; i++ {
		first := pick(r, firstNames)
		last := pick(r, surnames)
		records = append(records, models.Record{
			ID:         i,
			Name:       first + " " + last,
			Email:      fmt.Sprintf("%s.%s@company.com", strings.ToLower(first), strings.ToLower(last)),
			Department: pick(r, departments),
			Position:   pick(r, positions),
			Salary:     30000 + r.IntN(100000),
			StartDate:  time.Date(2020+r.IntN(4), time.Month(1+r.IntN(12)), 1+r.IntN(28), 0, 0, 0, 0, time.UTC),
			Status:     pick(r, statuses),
		})
	}
	return records
}

func pick(r *rand.Rand, pool []string) string {
	return pool[r.IntN(len(pool))]
}
