package core

// Aggregations over an in-memory blog list, exposed via /api/blogs/stats.

// TotalLikes sums the like counts of all blogs.
func TotalLikes(blogs []BlogRecord) int {
	sum := 0
	for _, b := range blogs {
		sum += b.Likes
	}
	return sum
}

// FavoriteSummary is the condensed view of the most-liked blog.
type FavoriteSummary struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Likes  int    `json:"likes"`
}

// FavoriteBlog returns the blog with the most likes, or nil for an
// empty list. Ties keep the earliest blog.
func FavoriteBlog(blogs []BlogRecord) *FavoriteSummary {
	if len(blogs) == 0 {
		return nil
	}
	best := blogs[0]
	for _, b := range blogs[1:] {
		if b.Likes > best.Likes {
			best = b
		}
	}
	return &FavoriteSummary{Title: best.Title, Author: best.Author, Likes: best.Likes}
}

// AuthorBlogCount names the author with the most blogs.
type AuthorBlogCount struct {
	Author string `json:"author"`
	Blogs  int    `json:"blogs"`
}

// MostBlogs returns the author with the largest number of blogs, or nil
// for an empty list.
func MostBlogs(blogs []BlogRecord) *AuthorBlogCount {
	if len(blogs) == 0 {
		return nil
	}
	counts := map[string]int{}
	for _, b := range blogs {
		counts[b.Author]++
	}
	var top AuthorBlogCount
	for _, b := range blogs {
		if counts[b.Author] > top.Blogs {
			top = AuthorBlogCount{Author: b.Author, Blogs: counts[b.Author]}
		}
	}
	return &top
}

// AuthorLikeCount names the author with the most total likes.
type AuthorLikeCount struct {
	Author string `json:"author"`
	Likes  int    `json:"likes"`
}

// MostLikes returns the author whose blogs have the largest combined
// like count, or nil for an empty list.
func MostLikes(blogs []BlogRecord) *AuthorLikeCount {
	if len(blogs) == 0 {
		return nil
	}
	likes := map[string]int{}
	for _, b := range blogs {
		likes[b.Author] += b.Likes
	}
	top := AuthorLikeCount{Author: blogs[0].Author, Likes: likes[blogs[0].Author]}
	for _, b := range blogs[1:] {
		if likes[b.Author] > top.Likes {
			top = AuthorLikeCount{Author: b.Author, Likes: likes[b.Author]}
		}
	}
	return &top
}
