// Package minio provides a blobstore.BlobStore implementation backed by the
// MinIO client.
//
// MinIO speaks the S3 protocol, so this store also works against Ceph,
// SeaweedFS, Garage and similar self-hosted object stores. It is the
// air-gap-friendly alternative to the s3 package: no AWS SDK or credential
// chain involved.
//
// # Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "my-bucket", "datasets/")
package minio
