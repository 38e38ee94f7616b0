package holiday

// Embedded statutory holiday calendars, used when both the cache and the
// remote source are unavailable. Only off-days are listed.
var fallbackCalendars = map[int]map[string]Day{
	2024: {
		"2024-01-01": {Name: "元旦", IsOffDay: true},
		"2024-02-10": {Name: "春节", IsOffDay: true},
		"2024-02-11": {Name: "春节", IsOffDay: true},
		"2024-02-12": {Name: "春节", IsOffDay: true},
		"2024-02-13": {Name: "春节", IsOffDay: true},
		"2024-02-14": {Name: "春节", IsOffDay: true},
		"2024-02-15": {Name: "春节", IsOffDay: true},
		"2024-02-16": {Name: "春节", IsOffDay: true},
		"2024-02-17": {Name: "春节", IsOffDay: true},
		"2024-04-04": {Name: "清明节", IsOffDay: true},
		"2024-04-05": {Name: "清明节", IsOffDay: true},
		"2024-04-06": {Name: "清明节", IsOffDay: true},
		"2024-05-01": {Name: "劳动节", IsOffDay: true},
		"2024-05-02": {Name: "劳动节", IsOffDay: true},
		"2024-05-03": {Name: "劳动节", IsOffDay: true},
		"2024-05-04": {Name: "劳动节", IsOffDay: true},
		"2024-05-05": {Name: "劳动节", IsOffDay: true},
		"2024-06-10": {Name: "端午节", IsOffDay: true},
		"2024-09-15": {Name: "中秋节", IsOffDay: true},
		"2024-09-16": {Name: "中秋节", IsOffDay: true},
		"2024-09-17": {Name: "中秋节", IsOffDay: true},
		"2024-10-01": {Name: "国庆节", IsOffDay: true},
		"2024-10-02": {Name: "国庆节", IsOffDay: true},
		"2024-10-03": {Name: "国庆节", IsOffDay: true},
		"2024-10-04": {Name: "国庆节", IsOffDay: true},
		"2024-10-05": {Name: "国庆节", IsOffDay: true},
		"2024-10-06": {Name: "国庆节", IsOffDay: true},
		"2024-10-07": {Name: "国庆节", IsOffDay: true},
	},
	2025: {
		"2025-01-01": {Name: "元旦", IsOffDay: true},
		"2025-01-28": {Name: "春节", IsOffDay: true},
		"2025-01-29": {Name: "春节", IsOffDay: true},
		"2025-01-30": {Name: "春节", IsOffDay: true},
		"2025-01-31": {Name: "春节", IsOffDay: true},
		"2025-02-01": {Name: "春节", IsOffDay: true},
		"2025-02-02": {Name: "春节", IsOffDay: true},
		"2025-02-03": {Name: "春节", IsOffDay: true},
		"2025-02-04": {Name: "春节", IsOffDay: true},
		"2025-04-04": {Name: "清明节", IsOffDay: true},
		"2025-04-05": {Name: "清明节", IsOffDay: true},
		"2025-04-06": {Name: "清明节", IsOffDay: true},
		"2025-05-01": {Name: "劳动节", IsOffDay: true},
		"2025-05-02": {Name: "劳动节", IsOffDay: true},
		"2025-05-03": {Name: "劳动节", IsOffDay: true},
		"2025-05-04": {Name: "劳动节", IsOffDay: true},
		"2025-05-05": {Name: "劳动节", IsOffDay: true},
		"2025-05-31": {Name: "端午节", IsOffDay: true},
		"2025-06-01": {Name: "端午节", IsOffDay: true},
		"2025-06-02": {Name: "端午节", IsOffDay: true},
		"2025-10-01": {Name: "国庆节、中秋节", IsOffDay: true},
		"2025-10-02": {Name: "国庆节、中秋节", IsOffDay: true},
		"2025-10-03": {Name: "国庆节、中秋节", IsOffDay: true},
		"2025-10-04": {Name: "国庆节、中秋节", IsOffDay: true},
		"2025-10-05": {Name: "国庆节、中秋节", IsOffDay: true},
		"2025-10-06": {Name: "国庆节、中秋节", IsOffDay: true},
		"2025-10-07": {Name: "国庆节、中秋节", IsOffDay: true},
		"2025-10-08": {Name: "国庆节、中秋节", IsOffDay: true},
	},
}
