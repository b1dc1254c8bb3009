package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hackgods/telehealth-social/internal/apperr"
	"github.com/hackgods/telehealth-social/internal/feed"
	"github.com/hackgods/telehealth-social/internal/media"
)

func feedHandler(svc FeedService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := pageParams(r)
		page, err := svc.Compose(r.Context(), feed.Query{
			Viewer: viewer(r),
			Filter: r.URL.Query().Get("filter"),
			Limit:  p.Limit,
			Offset: p.Offset,
		})
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, FeedResponse{
			Success: true,
			Posts:   page.Posts,
			Total:   page.Total,
			Count:   len(page.Posts),
			Limit:   page.Limit,
			Offset:  page.Offset,
			HasNext: hasNext(page.Limit, page.Offset, page.Total),
			Filter:  page.Filter,
		})
	}
}

func createPostHandler(svc FeedService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerID(r)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		var req CreatePostRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleError(w, r, log, err)
			return
		}

		post, err := svc.CreatePost(r.Context(), caller, req.Content, req.Media)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, PostResponse{Success: true, Post: post})
	}
}

func deletePostHandler(svc FeedService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerID(r)
		if err != nil {
			handleError(w, r, log, err)
			return
		}
		postID, err := parseUUIDParam(chi.URLParam(r, "postId"), "postId")
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		if err := svc.DeletePost(r.Context(), caller, postID); err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
	}
}

func likeHandler(svc FeedService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerID(r)
		if err != nil {
			handleError(w, r, log, err)
			return
		}
		postID, err := parseUUIDParam(chi.URLParam(r, "postId"), "postId")
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		if err := svc.Like(r.Context(), caller, postID); err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, LikeResponse{Success: true, Liked: true})
	}
}

func unlikeHandler(svc FeedService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerID(r)
		if err != nil {
			handleError(w, r, log, err)
			return
		}
		postID, err := parseUUIDParam(chi.URLParam(r, "postId"), "postId")
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		if err := svc.Unlike(r.Context(), caller, postID); err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, LikeResponse{Success: true, Liked: false})
	}
}

func listCommentsHandler(svc FeedService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := parseUUIDParam(chi.URLParam(r, "postId"), "postId")
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		p := pageParams(r)
		page, err := svc.ListComments(r.Context(), postID, p.Limit, p.Offset)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, CommentsResponse{
			Success:  true,
			Comments: page.Comments,
			Total:    page.Total,
			Count:    len(page.Comments),
			Limit:    page.Limit,
			Offset:   page.Offset,
			HasNext:  hasNext(page.Limit, page.Offset, page.Total),
		})
	}
}

func addCommentHandler(svc FeedService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerID(r)
		if err != nil {
			handleError(w, r, log, err)
			return
		}
		postID, err := parseUUIDParam(chi.URLParam(r, "postId"), "postId")
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		var req CreateCommentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleError(w, r, log, err)
			return
		}

		comment, err := svc.AddComment(r.Context(), caller, postID, req.Content)
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, CommentResponse{Success: true, Comment: comment})
	}
}

func uploadMediaHandler(store MediaStore, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerID(r)
		if err != nil {
			handleError(w, r, log, err)
			return
		}
		if store == nil {
			handleError(w, r, log, media.ErrDisabled)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, media.MaxUploadSize+(1<<20))
		file, header, err := r.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				handleError(w, r, log, media.ErrInvalidSize)
				return
			}
			handleError(w, r, log, apperr.Wrap(apperr.InvalidInput, err, "multipart field file is required"))
			return
		}
		defer file.Close()

		key, err := store.Upload(r.Context(), media.ObjectName(caller, header.Filename), file, header.Size, header.Header.Get("Content-Type"))
		if err != nil {
			handleError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, MediaResponse{Success: true, Media: key})
	}
}
